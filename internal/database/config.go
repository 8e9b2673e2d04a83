package database

import "time"

type Config struct {
	FileName string `envconfig:"WKNN_DB_FILE" toml:"file"`
	// Retention of stored runs. Zero disables the corresponding rule.
	MaxRuns       int           `envconfig:"WKNN_DB_MAX_RUNS" default:"0" toml:"max_runs"`
	MaxAge        time.Duration `envconfig:"WKNN_DB_MAX_AGE" default:"0s" toml:"max_age"`
	SweepInterval time.Duration `envconfig:"WKNN_DB_SWEEP_INTERVAL" default:"1m" toml:"sweep_interval"`
}

// Enabled reports whether runs should be persisted at all.
func (c Config) Enabled() bool {
	return c.FileName != ""
}
