// Package config loads the scheduler's YAML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/shift-engine/schedule"
)

// Config is the full application configuration.
type Config struct {
	Rules   RulesConfig      `yaml:"rules"`
	Roster  []EmployeeConfig `yaml:"roster"`
	Storage StorageConfig    `yaml:"storage"`
	Export  ExportConfig     `yaml:"export"`
	Server  ServerConfig     `yaml:"server"`
	Log     LogConfig        `yaml:"log"`

	// Seed makes generation and reinstatement deterministic when set.
	Seed *uint64 `yaml:"seed"`
}

type RulesConfig struct {
	ShiftHours int      `yaml:"shift_hours"`
	Shifts     []string `yaml:"shifts"`
	WorkDays   int      `yaml:"work_days"`
	HourlyRate string   `yaml:"hourly_rate"`
}

type EmployeeConfig struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite
	Path   string `yaml:"path"`
}

type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // xlsx | csv | json

	// Interval enables periodic full-schedule snapshots while serving.
	Interval time.Duration `yaml:"interval"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// DefaultCORSOrigins allows a local frontend during development.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// ReferenceRoster is the six-person roster used when none is configured.
var ReferenceRoster = []string{"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley"}

// Default returns the reference configuration.
func Default() *Config {
	roster := make([]EmployeeConfig, len(ReferenceRoster))
	for i, name := range ReferenceRoster {
		roster[i] = EmployeeConfig{ID: i + 1, Name: name}
	}
	shifts := make([]string, len(schedule.DefaultShifts))
	for i, s := range schedule.DefaultShifts {
		shifts[i] = string(s)
	}

	return &Config{
		Rules: RulesConfig{
			ShiftHours: schedule.DefaultShiftHours,
			Shifts:     shifts,
			WorkDays:   schedule.DefaultWorkDays,
			HourlyRate: fmt.Sprint(schedule.DefaultHourlyRate),
		},
		Roster:  roster,
		Storage: StorageConfig{Driver: DriverMemory},
		Export:  ExportConfig{Dir: "schedules", Format: "xlsx"},
		Server:  ServerConfig{Addr: ":8080", CORSOrigins: DefaultCORSOrigins},
		Log:     LogConfig{Level: "info", File: "scheduler.log"},
	}
}

// Load reads the YAML file at path on top of Default(). An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if _, err := c.ScheduleRules(); err != nil {
		return fmt.Errorf("config: rules: %w", err)
	}
	if len(c.Roster) == 0 {
		return fmt.Errorf("config: roster must list at least one employee")
	}
	if _, err := c.BuildRoster(); err != nil {
		return fmt.Errorf("config: roster: %w", err)
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = DriverMemory
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.Path == "" {
			c.Storage.Path = "schedule.db"
		}
	default:
		return fmt.Errorf("config: storage.driver %q must be memory or sqlite", c.Storage.Driver)
	}

	if c.Export.Dir == "" {
		c.Export.Dir = "schedules"
	}
	c.Export.Format = strings.ToLower(c.Export.Format)
	switch c.Export.Format {
	case "":
		c.Export.Format = "xlsx"
	case "xlsx", "csv", "json":
	default:
		return fmt.Errorf("config: export.format %q must be xlsx, csv or json", c.Export.Format)
	}
	if c.Export.Interval < 0 {
		return fmt.Errorf("config: export.interval must not be negative")
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	return nil
}

// ScheduleRules converts the rules section into validated schedule.Rules.
func (c *Config) ScheduleRules() (schedule.Rules, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.Rules.HourlyRate))
	if err != nil {
		return schedule.Rules{}, fmt.Errorf("hourly_rate %q: %w", c.Rules.HourlyRate, err)
	}
	shifts := make([]schedule.ShiftLabel, len(c.Rules.Shifts))
	for i, s := range c.Rules.Shifts {
		shifts[i] = schedule.ShiftLabel(s)
	}

	rules := schedule.Rules{
		ShiftHours: c.Rules.ShiftHours,
		Shifts:     shifts,
		WorkDays:   c.Rules.WorkDays,
		HourlyRate: rate,
	}
	if err := rules.Validate(); err != nil {
		return schedule.Rules{}, err
	}
	return rules, nil
}

// BuildRoster returns the configured roster in file order.
func (c *Config) BuildRoster() (*schedule.Roster, error) {
	employees := make([]schedule.Employee, len(c.Roster))
	for i, e := range c.Roster {
		employees[i] = schedule.Employee{ID: schedule.EmployeeID(e.ID), Name: e.Name}
	}
	return schedule.NewRoster(employees...)
}

// Random returns the seeded source when a seed is configured, otherwise a
// time-seeded one.
func (c *Config) Random() schedule.Random {
	if c.Seed != nil {
		return schedule.NewRandom(*c.Seed)
	}
	return schedule.NewTimeSeededRandom()
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	lvl, _ := parseLevel(c.Log.Level)
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return lvl, nil
}
