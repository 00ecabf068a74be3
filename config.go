package watch

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults of Config.
const (
	DefaultInterval        = 5 * time.Minute
	DefaultMinimumInterval = 5 * time.Minute
	DefaultMaximumInterval = 24 * time.Hour
	DefaultUserAgent       = "go-watch"
	DefaultTimeout         = 30 * time.Second
	DefaultWorkers         = 4
)

// Config configures a Monitor.
type Config struct {
	// Listen is the address of the HTTP interface, e.g. ":8080".
	Listen string `yaml:"listen"`

	// Interval is the polling period of Monitor.Run.
	Interval Duration `yaml:"interval"`

	UserAgent string   `yaml:"userAgent"`
	Timeout   Duration `yaml:"timeout"`

	// Workers bounds the number of concurrent checks.
	Workers int `yaml:"workers"`

	Entries []EntryConfig `yaml:"entries"`
}

// EntryConfig configures a monitored page.
type EntryConfig struct {
	URI string `yaml:"uri"`

	// LinkURI is the page to link to instead of URI, e.g. the site of a feed.
	LinkURI string `yaml:"linkURI"`

	IgnorePath  Words  `yaml:"ignorePath"`
	IgnoreClass Words  `yaml:"ignoreClass"`
	IgnoreID    Words  `yaml:"ignoreID"`
	IgnoreExpr  string `yaml:"ignoreExpr"`

	// UpdateInfo marks a page whose links announce updates of other entries.
	// Links are grouped by UpdateElement.
	UpdateInfo    bool   `yaml:"updateInfo"`
	UpdateElement string `yaml:"updateElement"`

	MinimumInterval Duration `yaml:"minimumInterval"`
	MaximumInterval Duration `yaml:"maximumInterval"`
}

// Rules returns the ignore rules of the entry.
func (e EntryConfig) Rules() IgnoreRules {
	return IgnoreRules{
		Paths:   e.IgnorePath,
		Classes: e.IgnoreClass,
		IDs:     e.IgnoreID,
		Expr:    e.IgnoreExpr,
	}
}

// Duration is a time.Duration written as a Go duration string ("90s",
// "1h30m") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Words is a list of strings written either as a YAML sequence or as a
// space-separated scalar.
type Words []string

func (w *Words) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*w = strings.Fields(s)
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*w = list
	return nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses a YAML configuration, fills in defaults and validates
// the result.
func ParseConfig(b []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Interval == 0 {
		c.Interval = Duration(DefaultInterval)
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(DefaultTimeout)
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	for i := range c.Entries {
		e := &c.Entries[i]
		if e.MinimumInterval == 0 {
			e.MinimumInterval = Duration(DefaultMinimumInterval)
		}
		if e.MaximumInterval == 0 {
			e.MaximumInterval = Duration(DefaultMaximumInterval)
		}
	}
}

// Validate reports every problem of the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Interval < 0 {
		errs = append(errs, fmt.Errorf("negative interval %v", time.Duration(c.Interval)))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("negative timeout %v", time.Duration(c.Timeout)))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("negative number of workers %d", c.Workers))
	}
	seen := make(map[string]bool)
	for i, e := range c.Entries {
		if e.URI == "" {
			errs = append(errs, fmt.Errorf("entry %d: missing uri", i))
			continue
		}
		if u, err := url.Parse(e.URI); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("entry %d: invalid uri %q", i, e.URI))
		}
		if seen[e.URI] {
			errs = append(errs, fmt.Errorf("entry %d: duplicate uri %q", i, e.URI))
		}
		seen[e.URI] = true
		if e.MinimumInterval < 0 || e.MaximumInterval < 0 {
			errs = append(errs, fmt.Errorf("entry %d: negative interval", i))
		}
		if _, err := e.Rules().compile(); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
