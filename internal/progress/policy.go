package progress

import (
	"context"
	"fmt"
	"strings"
)

// Policy decides what happens to existing progress at the start of a run.
type Policy string

const (
	// PolicyResume keeps existing progress and skips completed files.
	PolicyResume Policy = "resume"
	// PolicyRestart discards existing progress.
	PolicyRestart Policy = "restart"
	// PolicyAsk asks the operator, but only when there is progress to keep.
	PolicyAsk Policy = "ask"
)

// ParsePolicy accepts the policy names case-insensitively; "" is resume.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyResume, nil
	case PolicyResume, PolicyRestart, PolicyAsk:
		return p, nil
	default:
		return "", fmt.Errorf("unknown resume policy %q (want resume, restart or ask)", s)
	}
}

// Confirm asks whether to continue from n completed files.
type Confirm func(n int) (bool, error)

// Apply enforces p against the loaded progress. It runs once per run, before
// any file is processed. It reports whether existing progress was kept.
func (t *Tracker) Apply(ctx context.Context, p Policy, confirm Confirm) (bool, error) {
	n := t.Len()
	switch p {
	case PolicyResume, "":
		return true, nil
	case PolicyRestart:
		if n == 0 {
			return true, nil
		}
		return false, t.Reset(ctx)
	case PolicyAsk:
		if n == 0 {
			return true, nil
		}
		if confirm == nil {
			return false, fmt.Errorf("resume policy %q needs an interactive prompt", p)
		}
		keep, err := confirm(n)
		if err != nil {
			return false, err
		}
		if keep {
			return true, nil
		}
		return false, t.Reset(ctx)
	default:
		return false, fmt.Errorf("unknown resume policy %q", p)
	}
}
