// Package config holds the probe settings and their defaults.
package config

import "time"

const appName = "probe"

type Config struct {
	Cache    CacheConfig    `yaml:"cache"`
	Store    StoreConfig    `yaml:"store"`
	History  HistoryConfig  `yaml:"history"`
	SizeCalc SizeCalcConfig `yaml:"sizecalc"`
	Display  DisplayConfig  `yaml:"display"`
	Camera   CameraConfig   `yaml:"camera"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CacheConfig sizes the in-memory directory listing cache.
type CacheConfig struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
}

// StoreConfig configures the on-disk size/history store.
type StoreConfig struct {
	Enabled bool          `yaml:"enabled"`
	Driver  string        `yaml:"driver"` // "bolt", "sqlite"
	Dir     string        `yaml:"dir"`
	SizeTTL time.Duration `yaml:"sizeTTL"`
	Queue   int           `yaml:"queue"`
	Prune   string        `yaml:"prune"` // cron spec, empty disables
}

type HistoryConfig struct {
	Max        int  `yaml:"max"`
	ShowHidden bool `yaml:"showHidden"`
}

type SizeCalcConfig struct {
	Strategy string        `yaml:"strategy"` // "auto", "du", "mdfind", "walk"
	Results  int           `yaml:"results"`
	Timeout  time.Duration `yaml:"timeout"`
	Workers  int           `yaml:"workers"`
}

type DisplayConfig struct {
	MaxItems int `yaml:"maxItems"`
}

type CameraConfig struct {
	Drilldown time.Duration `yaml:"drilldown"`
	Reset     time.Duration `yaml:"reset"`
}

type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `yaml:"format"` // "json", "console"
	File       string `yaml:"file"`
	NoTerminal bool   `yaml:"noTerminal"`
	MaxSize    int    `yaml:"maxSize"` // MB
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"` // days
}

const (
	DefaultCacheCapacity = 50
	DefaultCacheTTL      = 30 * time.Second
	DefaultSizeTTL       = time.Hour
	DefaultStoreQueue    = 64
	DefaultHistoryMax    = 10
	MinHistoryMax        = 10
	MaxHistoryMax        = 30
	DefaultResults       = 100
	DefaultMaxItems      = 20
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Capacity: DefaultCacheCapacity,
			TTL:      DefaultCacheTTL,
		},
		Store: StoreConfig{
			Enabled: true,
			Driver:  "bolt",
			SizeTTL: DefaultSizeTTL,
			Queue:   DefaultStoreQueue,
			Prune:   "@every 30m",
		},
		History: HistoryConfig{
			Max: DefaultHistoryMax,
		},
		SizeCalc: SizeCalcConfig{
			Strategy: "auto",
			Results:  DefaultResults,
			Timeout:  60 * time.Second,
		},
		Display: DisplayConfig{
			MaxItems: DefaultMaxItems,
		},
		Camera: CameraConfig{
			Drilldown: 800 * time.Millisecond,
			Reset:     500 * time.Millisecond,
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSize:    16,
			MaxBackups: 3,
			MaxAge:     14,
		},
	}
}

// Normalize clamps out-of-range values back to usable ones.
func (c *Config) Normalize() {
	d := Default()
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = d.Cache.Capacity
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = d.Cache.TTL
	}
	switch c.Store.Driver {
	case "bolt", "sqlite":
	default:
		c.Store.Driver = d.Store.Driver
	}
	if c.Store.SizeTTL <= 0 {
		c.Store.SizeTTL = d.Store.SizeTTL
	}
	if c.Store.Queue <= 0 {
		c.Store.Queue = d.Store.Queue
	}
	c.History.Max = ClampHistoryMax(c.History.Max)
	switch c.SizeCalc.Strategy {
	case "auto", "du", "mdfind", "walk":
	default:
		c.SizeCalc.Strategy = d.SizeCalc.Strategy
	}
	if c.SizeCalc.Results <= 0 {
		c.SizeCalc.Results = d.SizeCalc.Results
	}
	if c.SizeCalc.Timeout <= 0 {
		c.SizeCalc.Timeout = d.SizeCalc.Timeout
	}
	if c.SizeCalc.Workers < 0 {
		c.SizeCalc.Workers = 0
	}
	if c.Display.MaxItems <= 0 {
		c.Display.MaxItems = d.Display.MaxItems
	}
	if c.Camera.Drilldown <= 0 {
		c.Camera.Drilldown = d.Camera.Drilldown
	}
	if c.Camera.Reset <= 0 {
		c.Camera.Reset = d.Camera.Reset
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = d.Watch.Debounce
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// ClampHistoryMax keeps the recent-history length inside the range offered
// by the settings page.
func ClampHistoryMax(n int) int {
	if n <= 0 {
		return DefaultHistoryMax
	}
	if n < MinHistoryMax {
		return MinHistoryMax
	}
	if n > MaxHistoryMax {
		return MaxHistoryMax
	}
	return n
}
