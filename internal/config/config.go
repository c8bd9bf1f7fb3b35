// Package config defines the run configuration and loads it from, in rising
// precedence: built-in defaults, an optional YAML/JSON/TOML file, COLSPLIT_*
// environment variables and command-line flags.
//
// Example file:
//
//	input_dir: /data/in
//	output_dir: /data/out
//	split_names: true
//	name_column: 2
//	split_address: true
//	address_column: 3
//	progress:
//	  backend: sqlite
//	  path: /var/lib/colsplit/progress.db
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"

	"colsplit/internal/parser/csv"
	"colsplit/internal/progress"
	"colsplit/internal/transformer"
)

// EnvPrefix is the environment variable prefix; "csv.comma" maps to
// COLSPLIT_CSV_COMMA.
const EnvPrefix = "COLSPLIT"

// Config is the full run configuration.
type Config struct {
	InputDir  string `mapstructure:"input_dir" json:"input_dir"`
	OutputDir string `mapstructure:"output_dir" json:"output_dir"`

	// Pattern filters input file names (filepath.Match syntax).
	Pattern   string `mapstructure:"pattern" json:"pattern"`
	ChunkSize int    `mapstructure:"chunk_size" json:"chunk_size"`

	SplitNames    bool `mapstructure:"split_names" json:"split_names"`
	SplitAddress  bool `mapstructure:"split_address" json:"split_address"`
	UniformSchema bool `mapstructure:"uniform_schema" json:"uniform_schema"`

	// NameColumn and AddressColumn are 1-based header positions; 0 means
	// "ask" in interactive mode.
	NameColumn    int `mapstructure:"name_column" json:"name_column"`
	AddressColumn int `mapstructure:"address_column" json:"address_column"`

	NameColumns    []string `mapstructure:"name_columns" json:"name_columns"`
	AddressColumns []string `mapstructure:"address_columns" json:"address_columns"`

	Interactive bool   `mapstructure:"interactive" json:"interactive"`
	Resume      string `mapstructure:"resume" json:"resume"`

	CSV      CSV      `mapstructure:"csv" json:"csv"`
	Progress Progress `mapstructure:"progress" json:"progress"`
	Metrics  Metrics  `mapstructure:"metrics" json:"metrics"`
	Log      Log      `mapstructure:"log" json:"log"`
}

// CSV holds input parsing and output formatting options.
type CSV struct {
	Comma       string `mapstructure:"comma" json:"comma"`
	OutputComma string `mapstructure:"output_comma" json:"output_comma"`
	LazyQuotes  bool   `mapstructure:"lazy_quotes" json:"lazy_quotes"`
	Encoding    string `mapstructure:"encoding" json:"encoding"`

	// StrictWidth rejects rows shorter than the header instead of reading
	// missing cells as empty.
	StrictWidth bool `mapstructure:"strict_width" json:"strict_width"`
}

// Progress selects the progress store.
type Progress struct {
	Backend string `mapstructure:"backend" json:"backend"`
	Path    string `mapstructure:"path" json:"path"`
	DSN     string `mapstructure:"dsn" json:"dsn"`
	Table   string `mapstructure:"table" json:"table"`
	App     string `mapstructure:"app" json:"app"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string `mapstructure:"backend" json:"backend"`
	PushgatewayURL string `mapstructure:"pushgateway_url" json:"pushgateway_url"`
	DatadogAddr    string `mapstructure:"datadog_addr" json:"datadog_addr"`
	Job            string `mapstructure:"job" json:"job"`
}

// Log configures logging.
type Log struct {
	Level  string `mapstructure:"level" json:"level"`
	File   string `mapstructure:"file" json:"file"`
	Format string `mapstructure:"format" json:"format"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Pattern:        "*",
		ChunkSize:      csv.DefaultChunkSize,
		NameColumns:    append([]string(nil), transformer.DefaultNameColumns...),
		AddressColumns: append([]string(nil), transformer.DefaultAddressColumns...),
		Resume:         string(progress.PolicyResume),
		CSV: CSV{
			Comma:       ",",
			OutputComma: ",",
			Encoding:    "utf-8",
		},
		Progress: Progress{
			Backend: "json",
			Path:    DefaultProgressPath(),
			App:     progress.DefaultApp,
		},
		Metrics: Metrics{Backend: "none", Job: "colsplit"},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// DefaultProgressPath is <user config dir>/colsplit/progress.json, falling
// back to the working directory when there is no user config dir.
func DefaultProgressPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "colsplit-progress.json"
	}
	return filepath.Join(dir, "colsplit", "progress.json")
}

// New returns a viper instance with every key's default and environment
// binding registered. Callers bind flags on it and then call Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	def := Default()
	bindEnvs(v, &def)
	return v
}

// Load reads the optional config file and decodes everything v knows into
// a Config. A named file that cannot be read is an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// bindEnvs registers a default and an env binding for every leaf field so
// that env-only values are visible to Unmarshal.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		k := strings.Join(key, ".")
		v.SetDefault(k, val.Field(i).Interface())
		_ = v.BindEnv(k)
	}
}

// Selections maps the split switches and 1-based indices onto transformer
// selections. A disabled splitter selects index 0.
func (c *Config) Selections() transformer.Selections {
	sel := transformer.Selections{
		NameColumns:    c.NameColumns,
		AddressColumns: c.AddressColumns,
	}
	if c.SplitNames {
		sel.NameIndex = c.NameColumn
	}
	if c.SplitAddress {
		sel.AddressIndex = c.AddressColumn
	}
	return sel
}

// InputOptions returns the CSV reading options.
func (c *Config) InputOptions() (csv.Options, error) {
	comma, err := ParseDelimiter(c.CSV.Comma)
	if err != nil {
		return csv.Options{}, fmt.Errorf("csv.comma: %w", err)
	}
	opt := csv.Options{
		Comma:           comma,
		LazyQuotes:      c.CSV.LazyQuotes,
		Encoding:        c.CSV.Encoding,
		FieldsPerRecord: -1,
	}
	if c.CSV.StrictWidth {
		opt.FieldsPerRecord = 0
	}
	return opt, nil
}

// OutputOptions returns the CSV writing options.
func (c *Config) OutputOptions() (csv.Options, error) {
	comma, err := ParseDelimiter(c.CSV.OutputComma)
	if err != nil {
		return csv.Options{}, fmt.Errorf("csv.output_comma: %w", err)
	}
	return csv.Options{Comma: comma}, nil
}

// ParseDelimiter accepts a single character, or "tab" / `\t`. Empty is ','.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, n := utf8.DecodeRuneInString(s)
	if n != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("delimiter %q is not allowed", s)
	}
	return r, nil
}
