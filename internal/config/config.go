package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/username/school-scheduler/internal/calendar"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// Config represents application configuration.
// Relative file paths are resolved against the directory of the config file.
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar"`
	Week     WeekConfig     `mapstructure:"week"`
	Roster   RosterConfig   `mapstructure:"roster"`
	Log      LogConfig      `mapstructure:"log"`
}

// CalendarConfig represents the school calendar source
type CalendarConfig struct {
	File            string   `mapstructure:"file"`             // iCalendar file with terms and holidays
	HolidayKeywords []string `mapstructure:"holiday_keywords"` // Events whose summary contains one of these close the canteen
	ExtraFiles      []string `mapstructure:"extra_files"`      // Optional local closures, e.g. strikes or bridge days
}

// WeekConfig represents week resolution defaults
type WeekConfig struct {
	ClosedWeekdays []string `mapstructure:"closed_weekdays"` // e.g. ["wednesday"]
	NextWeek       bool     `mapstructure:"next_week"`
}

// RosterConfig represents the lunch registrations source
type RosterConfig struct {
	File string `mapstructure:"file"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.school-scheduler")
		v.AddConfigPath("/etc/school-scheduler")
	}

	v.SetDefault("week.closed_weekdays", []string{"wednesday"})
	v.SetDefault("log.level", "info")

	// Read environment variables, e.g. SCHEDULER_CALENDAR_FILE
	v.SetEnvPrefix("scheduler")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()
	config.ResolvePaths(filepath.Dir(v.ConfigFileUsed()))

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Calendar.File == "" {
		return fmt.Errorf("calendar.file is required")
	}

	if _, err := c.Week.GetClosedWeekdays(); err != nil {
		return fmt.Errorf("week.closed_weekdays: %w", err)
	}

	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}

	return nil
}

// GetClosedWeekdays returns the configured closed weekdays.
// An explicitly empty list means the canteen is open every weekday.
func (c *WeekConfig) GetClosedWeekdays() ([]calendar.Weekday, error) {
	days := make([]calendar.Weekday, 0, len(c.ClosedWeekdays))
	for _, name := range c.ClosedWeekdays {
		w, err := calendar.ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, w)
	}
	return days, nil
}

// ExpandEnvVars expands environment variables in file paths
func (c *Config) ExpandEnvVars() {
	c.Calendar.File = os.ExpandEnv(c.Calendar.File)
	for i, f := range c.Calendar.ExtraFiles {
		c.Calendar.ExtraFiles[i] = os.ExpandEnv(f)
	}
	c.Roster.File = os.ExpandEnv(c.Roster.File)
	c.Log.File = os.ExpandEnv(c.Log.File)
}

// ResolvePaths makes relative file paths relative to dir
func (c *Config) ResolvePaths(dir string) {
	resolve := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(dir, path)
	}

	c.Calendar.File = resolve(c.Calendar.File)
	for i, f := range c.Calendar.ExtraFiles {
		c.Calendar.ExtraFiles[i] = resolve(f)
	}
	c.Roster.File = resolve(c.Roster.File)
	c.Log.File = resolve(c.Log.File)
}
