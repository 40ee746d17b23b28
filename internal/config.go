package internal

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Source kinds.
const (
	SourceCSV = "csv"
	SourceSQL = "sql"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Source    SourceConfig      `yaml:"source"`
	Templates TemplatesConfig   `yaml:"templates"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Templates.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
//
// Debug lowers the log level to debug, mounts the profiler and makes open
// pages reload themselves when the dataset or templates change.
// AutoReload re-parses the page template on every request.
type ApplicationConfig struct {
	Title      string     `yaml:"title"`
	LogLevel   slog.Level `yaml:"log_level"`
	Debug      bool       `yaml:"debug"`
	AutoReload bool       `yaml:"auto_reload"`
	HTTP       HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// EffectiveLogLevel returns the level the logger should use.
func (c *ApplicationConfig) EffectiveLogLevel() slog.Level {
	if c.Debug && c.LogLevel > slog.LevelDebug {
		return slog.LevelDebug
	}
	return c.LogLevel
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SourceConfig selects where the dataset is loaded from.
type SourceConfig struct {
	Kind string    `yaml:"kind"`
	CSV  CSVConfig `yaml:"csv"`
	SQL  SQLConfig `yaml:"sql"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Kind, validation.Required, validation.In(SourceCSV, SourceSQL)),
	); err != nil {
		return err
	}
	if c.Kind == SourceSQL {
		return c.SQL.Validate()
	}
	return c.CSV.Validate()
}

// CSVConfig describes a delimited text file.
type CSVConfig struct {
	Path      string `yaml:"path"`
	Encoding  string `yaml:"encoding"`
	Delimiter string `yaml:"delimiter"`
	Comment   string `yaml:"comment"`
}

// Validate validates the CSV configuration.
func (c *CSVConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Delimiter, validation.By(singleRune)),
		validation.Field(&c.Comment, validation.By(singleRune), validation.By(c.distinctComment)),
	)
}

// distinctComment rejects a comment character that equals the effective
// delimiter, which encoding/csv refuses on every read.
func (c *CSVConfig) distinctComment(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	delim := c.DelimiterRune()
	if delim == 0 {
		delim = ','
	}
	if r, _ := utf8.DecodeRuneInString(s); r == delim {
		return fmt.Errorf("must differ from the delimiter")
	}
	return nil
}

// DelimiterRune returns the configured delimiter, or zero for the default.
func (c *CSVConfig) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	if r == utf8.RuneError {
		return 0
	}
	return r
}

// CommentRune returns the configured comment character, or zero for none.
func (c *CSVConfig) CommentRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Comment)
	if r == utf8.RuneError {
		return 0
	}
	return r
}

func singleRune(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return fmt.Errorf("must be a single character")
	}
	switch r, _ := utf8.DecodeRuneInString(s); r {
	case '"', '\r', '\n', utf8.RuneError:
		return fmt.Errorf("must not be a quote or line break")
	}
	return nil
}

// SQLConfig describes a query whose result set is the dataset.
type SQLConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Query  string `yaml:"query"`
}

// Validate validates the SQL configuration.
func (c *SQLConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In("sqlite3", "postgres", "mysql")),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.Query, validation.Required),
	)
}

// TemplatesConfig locates the page template and static assets on disk.
// An empty Dir or StaticDir selects the copies compiled into the binary.
type TemplatesConfig struct {
	Dir       string `yaml:"dir"`
	Name      string `yaml:"name"`
	StaticDir string `yaml:"static_dir"`
}

// Validate validates the templates configuration.
func (c *TemplatesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
	)
}

// AuthConfig holds authentication configuration for /api routes.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a Config that serves ./data/dataset.csv with the
// template in ./web/templates on 127.0.0.1:5000 in debug mode.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			Title:      "Campus Placements",
			LogLevel:   slog.LevelInfo,
			Debug:      true,
			AutoReload: true,
			HTTP: HTTPConfig{
				Host: "127.0.0.1",
				Port: 5000,
			},
		},
		Source: SourceConfig{
			Kind: SourceCSV,
			CSV: CSVConfig{
				Path: "./data/dataset.csv",
			},
		},
		Templates: TemplatesConfig{
			Dir:       "./web/templates",
			Name:      "index.html",
			StaticDir: "./web/static",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
