package config

import "time"

// DefaultConfig keeps default values of the configuration.
var DefaultConfig = Config{
	NodeAddress:   "ws://127.0.0.1:9944",
	KeyFile:       "dotnation_key.json",
	ListenAddress: "127.0.0.1:8085",
	DBPath:        "data",
	BatchCeiling:  25,
	PacingDelay:   500 * time.Millisecond,
	FeeCeiling:    1_000_000_000_000,
	Prometheus:    false,
}
