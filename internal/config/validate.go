package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"colsplit/internal/errs"
	"colsplit/internal/logging"
	"colsplit/internal/parser/csv"
	"colsplit/internal/progress"
	"colsplit/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks a run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one validation finding. Path is the dotted config key, e.g.
// "progress.dsn".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate lints c without touching the filesystem or network. It does not
// mutate c.
func Validate(c Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, a ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	// Directories. Interactive runs may leave them to the prompt.
	if strings.TrimSpace(c.InputDir) == "" && !c.Interactive {
		add(SeverityError, "input_dir", "input_dir must not be empty")
	}
	if strings.TrimSpace(c.OutputDir) == "" && !c.Interactive {
		add(SeverityError, "output_dir", "output_dir must not be empty")
	}
	if c.InputDir != "" && c.OutputDir != "" && samePath(c.InputDir, c.OutputDir) {
		add(SeverityError, "output_dir", "output_dir must differ from input_dir; outputs reuse input file names")
	}
	if c.Pattern != "" {
		if _, err := filepath.Match(c.Pattern, ""); err != nil {
			add(SeverityError, "pattern", "malformed pattern %q", c.Pattern)
		}
	}
	if c.ChunkSize <= 0 {
		add(SeverityError, "chunk_size", "chunk_size must be positive, got %d", c.ChunkSize)
	}

	issues = append(issues, validateSplit(c)...)

	if p, err := progress.ParsePolicy(c.Resume); err != nil {
		add(SeverityError, "resume", "%v", err)
	} else if p == progress.PolicyAsk && !c.Interactive {
		add(SeverityError, "resume", "resume=ask needs interactive mode")
	}

	issues = append(issues, validateCSV(c.CSV)...)
	issues = append(issues, validateProgress(c.Progress)...)
	issues = append(issues, validateMetrics(c.Metrics)...)

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add(SeverityError, "log.level", "%v", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		add(SeverityError, "log.format", "log.format must be text or json, got %q", c.Log.Format)
	}
	return issues
}

func validateSplit(c Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, a ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if !c.SplitNames && !c.SplitAddress && !c.Interactive {
		// Reported per file by the run; completed files are still skipped.
		add(SeverityWarning, "split_names", "neither split_names nor split_address is enabled; every file needing processing will fail")
	}
	if c.NameColumn < 0 {
		add(SeverityError, "name_column", "name_column is 1-based and must not be negative")
	}
	if c.AddressColumn < 0 {
		add(SeverityError, "address_column", "address_column is 1-based and must not be negative")
	}
	if c.SplitNames && c.NameColumn == 0 && !c.Interactive {
		add(SeverityError, "name_column", "split_names needs name_column (1-based)")
	}
	if c.SplitAddress && c.AddressColumn == 0 && !c.Interactive {
		add(SeverityError, "address_column", "split_address needs address_column (1-based)")
	}
	if c.SplitNames && c.SplitAddress && c.NameColumn > 0 && c.NameColumn == c.AddressColumn {
		add(SeverityError, "address_column", "name_column and address_column both select column %d", c.NameColumn)
	}
	if !c.SplitNames && c.NameColumn > 0 {
		add(SeverityWarning, "name_column", "name_column is set but split_names is off")
	}
	if !c.SplitAddress && c.AddressColumn > 0 {
		add(SeverityWarning, "address_column", "address_column is set but split_address is off")
	}

	if n := len(c.NameColumns); n != 3 {
		add(SeverityError, "name_columns", "name_columns needs 3 names (first, middle, last), got %d", n)
	}
	if n := len(c.AddressColumns); n != 4 {
		add(SeverityError, "address_columns", "address_columns needs 4 names (city, state, country, postal code), got %d", n)
	}
	seen := map[string]string{}
	check := func(path string, names []string) {
		for _, n := range names {
			if strings.TrimSpace(n) == "" {
				add(SeverityError, path, "output column names must not be empty")
				continue
			}
			if prev, dup := seen[n]; dup {
				add(SeverityError, path, "output column %q also appears in %s", n, prev)
				continue
			}
			seen[n] = path
		}
	}
	if c.SplitNames || c.Interactive {
		check("name_columns", c.NameColumns)
	}
	if c.SplitAddress || c.Interactive {
		check("address_columns", c.AddressColumns)
	}
	return issues
}

func validateCSV(c CSV) []Issue {
	var issues []Issue
	if _, err := ParseDelimiter(c.Comma); err != nil {
		issues = append(issues, Issue{SeverityError, "csv.comma", err.Error()})
	}
	if _, err := ParseDelimiter(c.OutputComma); err != nil {
		issues = append(issues, Issue{SeverityError, "csv.output_comma", err.Error()})
	}
	if _, err := csv.LookupEncoding(c.Encoding); err != nil {
		issues = append(issues, Issue{SeverityError, "csv.encoding", err.Error()})
	}
	return issues
}

func validateProgress(p Progress) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, a ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	switch p.Backend {
	case "json":
		if strings.TrimSpace(p.Path) == "" {
			add(SeverityError, "progress.path", "json progress needs a path")
		}
	case "sqlite":
		if strings.TrimSpace(p.Path) == "" && strings.TrimSpace(p.DSN) == "" {
			add(SeverityError, "progress.path", "sqlite progress needs a path or dsn")
		}
	case "postgres", "mssql", "mysql":
		if strings.TrimSpace(p.DSN) == "" {
			add(SeverityError, "progress.dsn", "%s progress needs a dsn", p.Backend)
		}
	case "":
		add(SeverityError, "progress.backend", "progress.backend must not be empty")
	default:
		add(SeverityError, "progress.backend", "unknown progress backend %q", p.Backend)
	}
	if p.Table != "" && !storage.ValidTable(p.Table) {
		add(SeverityError, "progress.table", "invalid table name %q", p.Table)
	}
	if p.Table != "" && p.Backend == "json" {
		add(SeverityWarning, "progress.table", "progress.table is ignored by the json backend")
	}
	if strings.TrimSpace(p.App) == "" {
		add(SeverityWarning, "progress.app", "progress.app is empty; %q will be used", progress.DefaultApp)
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", "pushgateway metrics need pushgateway_url"})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{SeverityError, "metrics.datadog_addr", "datadog metrics need datadog_addr"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "metrics.backend", fmt.Sprintf("unknown metrics backend %q", m.Backend)})
	}
	return issues
}

// Err folds the error-severity issues into one Configuration error, or
// returns nil when there are none.
func Err(issues []Issue) error {
	var merr *multierror.Error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			merr = multierror.Append(merr, iss)
		}
	}
	if merr == nil {
		return nil
	}
	return &errs.Error{Kind: errs.Configuration, Op: "validate config", Err: merr}
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}
