// Load envs from .env
// Load YAML config
// Apply env overrides and defaults
// Validate config

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ot-job-monitor/internal/filter"
	"ot-job-monitor/internal/scraper"
	"ot-job-monitor/internal/scraper/oturoc"
)

const (
	DefaultPath   = "configs/config.yaml"
	PathEnv       = "OT_MONITOR_CONFIG"
	dateLayout    = "2006-01-02"
	minCheckEvery = time.Minute
)

var (
	ErrMissingToken  = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrMissingChatID = errors.New("TELEGRAM_CHAT_ID is required")
)

type Config struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	//Listing site
	ListingURL   string `yaml:"listing_url"`
	ItemSelector string `yaml:"item_selector"`
	NextSelector string `yaml:"next_selector"`
	CookiesPath  string `yaml:"cookies_path"`
	// Headless forces the browser mode; unset means detect CI.
	Headless    *bool         `yaml:"headless"`
	OpenSettle  time.Duration `yaml:"open_settle"`
	ClickSettle time.Duration `yaml:"click_settle"`

	//Search criteria
	Locations       []string `yaml:"locations"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	StartDateMin    string   `yaml:"start_date_min"`
	StartDateMax    string   `yaml:"start_date_max"`

	//Paths
	SeenPath string `yaml:"seen_path"`
	DebugDir string `yaml:"debug_dir"`

	Translate     bool          `yaml:"translate"`
	SendPause     time.Duration `yaml:"send_pause"`
	CheckInterval time.Duration `yaml:"check_interval"`
	RunTimeout    time.Duration `yaml:"run_timeout"`
	LogLevel      string        `yaml:"log_level"`
	LogFile       string        `yaml:"log_file"`
	Port          string        `yaml:"port"`
}

func defaults() *Config {
	return &Config{
		ListingURL:      oturoc.ListingURL,
		NextSelector:    scraper.DefaultNextSelector,
		OpenSettle:      scraper.DefaultOpenSettle,
		ClickSettle:     scraper.DefaultClickSettle,
		Locations:       append([]string(nil), filter.DefaultLocations...),
		ExcludeKeywords: append([]string(nil), filter.DefaultExcludeKeywords...),
		StartDateMin:    filter.DefaultStartDateMin.Format(dateLayout),
		StartDateMax:    filter.DefaultStartDateMax.Format(dateLayout),
		SeenPath:        "data/seen_jobs.json",
		DebugDir:        "debug_output",
		Translate:       true,
		SendPause:       time.Second,
		CheckInterval:   30 * time.Minute,
		RunTimeout:      20 * time.Minute,
		LogLevel:        "info",
		LogFile:         "job_monitor.log",
		Port:            "8080",
	}
}

// Load builds the config from .env, the YAML file and the environment, in
// increasing priority. An empty path falls back to $OT_MONITOR_CONFIG and then
// configs/config.yaml; a missing default file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(PathEnv)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillEmpty()
	return cfg, nil
}

//Override with env vars
func (c *Config) applyEnv() error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.TelegramToken = token
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}

	if minutes := os.Getenv("CHECK_INTERVAL_MINUTES"); minutes != "" {
		n, err := strconv.Atoi(minutes)
		if err != nil {
			return fmt.Errorf("invalid CHECK_INTERVAL_MINUTES: %w", err)
		}
		c.CheckInterval = time.Duration(n) * time.Minute
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Port = port
	}
	if seen := os.Getenv("SEEN_JOBS_PATH"); seen != "" {
		c.SeenPath = seen
	}
	return nil
}

// fillEmpty restores defaults for keys the YAML file set to empty values.
func (c *Config) fillEmpty() {
	d := defaults()
	if c.ListingURL == "" {
		c.ListingURL = d.ListingURL
	}
	if c.NextSelector == "" {
		c.NextSelector = d.NextSelector
	}
	if len(c.Locations) == 0 {
		c.Locations = d.Locations
	}
	if c.StartDateMin == "" {
		c.StartDateMin = d.StartDateMin
	}
	if c.StartDateMax == "" {
		c.StartDateMax = d.StartDateMax
	}
	if c.SeenPath == "" {
		c.SeenPath = d.SeenPath
	}
	if c.DebugDir == "" {
		c.DebugDir = d.DebugDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.RunTimeout == 0 {
		c.RunTimeout = d.RunTimeout
	}
}

// Validate checks everything a run needs except Telegram credentials.
func (c *Config) Validate() error {
	if c.ListingURL == "" {
		return errors.New("listing_url is empty")
	}

	minDate, err := time.Parse(dateLayout, c.StartDateMin)
	if err != nil {
		return fmt.Errorf("invalid start_date_min: %w", err)
	}
	maxDate, err := time.Parse(dateLayout, c.StartDateMax)
	if err != nil {
		return fmt.Errorf("invalid start_date_max: %w", err)
	}
	if maxDate.Before(minDate) {
		return fmt.Errorf("start_date_max %s is before start_date_min %s", c.StartDateMax, c.StartDateMin)
	}

	if c.RunTimeout < 0 {
		return fmt.Errorf("invalid run timeout: %v", c.RunTimeout)
	}
	if c.OpenSettle < 0 || c.ClickSettle < 0 || c.SendPause < 0 {
		return errors.New("settle and pause durations must not be negative")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// ValidateSchedule checks the settings only the daemon uses.
func (c *Config) ValidateSchedule() error {
	if c.CheckInterval < minCheckEvery {
		return fmt.Errorf("check interval too small: %v", c.CheckInterval)
	}
	return nil
}

// ValidateTelegram checks the credentials needed for delivery.
func (c *Config) ValidateTelegram() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	if c.TelegramChatID == 0 {
		return ErrMissingChatID
	}
	return nil
}

// Criteria converts the search settings into filter criteria. Call
// Validate first; unparseable dates fall back to the defaults.
func (c *Config) Criteria() filter.Criteria {
	crit := filter.DefaultCriteria()
	crit.Locations = c.Locations
	crit.ExcludeKeywords = c.ExcludeKeywords
	if t, err := time.Parse(dateLayout, c.StartDateMin); err == nil {
		crit.StartDateMin = t
	}
	if t, err := time.Parse(dateLayout, c.StartDateMax); err == nil {
		crit.StartDateMax = t
	}
	return crit
}

// HeadlessMode resolves the browser mode: the explicit setting wins,
// otherwise headless under CI.
func (c *Config) HeadlessMode(detect func() bool) bool {
	if c.Headless != nil {
		return *c.Headless
	}
	return detect()
}
