package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Database = DatabaseConfig{
		Path:    ":memory:",
		Timeout: 1 * time.Second,
	}
	cfg.Search.Debounce = 10 * time.Millisecond
	cfg.Catalog.Source = "fake"
	cfg.Catalog.SimulateLatency = false
	cfg.Feed = FeedConfig{
		HTTPTimeout: 5 * time.Second,
		UserAgent:   "reel-test/1.0",
	}
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
