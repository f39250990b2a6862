package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagScript  = flag.String("script", "", "Path to a feature script")
	flagSeed    = flag.Uint64("seed", 0, "Random seed (0 keeps the configured seed)")
	flagBPM     = flag.Float64("bpm", 0, "Default tempo in beats per minute")
	flagFPS     = flag.Int("fps", 0, "Simulated frames per second")
	flagWatch   = flag.Bool("watch", false, "Reload tuning when the config file changes")
	flagLogFile = flag.String("log-file", "", "Write logs to this file as well")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagScript != "" {
		cfg.Session.Script = *flagScript
	}
	if *flagSeed != 0 {
		cfg.Session.Seed = *flagSeed
	}
	if *flagBPM > 0 {
		cfg.Session.BPM = *flagBPM
	}
	if *flagFPS > 0 {
		cfg.Session.FrameRate = *flagFPS
	}
	if *flagWatch {
		cfg.Session.Watch = true
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
