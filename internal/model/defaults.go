package model

import "time"

// Shared defaults used by both the CLI entrypoint and the fetch layer.
const (
	DefaultAddress      = "0.0.0.0:3000"
	DefaultFetchTimeout = 30 * time.Second
)
