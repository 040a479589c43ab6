package main

import (
	"time"

	"github.com/tinytelemetry/pulse/internal/model"
)

const (
	defaultAddress     = model.DefaultAddress
	defaultTargetsFile = "targets.yml"
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Address         string        `mapstructure:"address"`
	TargetsFile     string        `mapstructure:"targets-file"`
	ScrapeOnStartup bool          `mapstructure:"scrape-on-startup"`
	FetchTimeout    time.Duration `mapstructure:"fetch-timeout"`
	LogFile         string        `mapstructure:"log-file"`
	ConfigPath      string        `mapstructure:"-"` // not from config file
}
