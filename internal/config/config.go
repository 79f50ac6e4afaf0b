// Package config centralizes the daemon's runtime configuration: listen
// address, data directory, and log level, each settable by flag or by the
// matching environment variable (the urfave/cli EnvVars mechanism
// subsuming the getenv/mustGetenv helpers a hand-rolled flag parser would
// otherwise need).
package config

import "github.com/urfave/cli/v2"

// Config holds storagemapd's resolved runtime settings.
type Config struct {
	// Listen is the address the daemon's HTTP front door binds to.
	Listen string
	// DataDir is the directory backing resources and saved envelopes are
	// rooted under.
	DataDir string
	// LogLevel controls the verbosity of structured logging.
	LogLevel string
}

// Flag name constants, shared between Flags and FromContext so the two
// never drift apart.
const (
	flagListen   = "listen"
	flagDataDir  = "data-dir"
	flagLogLevel = "log-level"
)

// Flags returns the CLI flag set storagemapd registers on its app, each
// overridable by the given environment variable.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagListen,
			Usage:   "address the HTTP front door listens on",
			Value:   ":8090",
			EnvVars: []string{"STORAGEMAPD_LISTEN"},
		},
		&cli.StringFlag{
			Name:    flagDataDir,
			Usage:   "directory backing resources and saved envelopes are rooted under",
			Value:   "./data",
			EnvVars: []string{"STORAGEMAPD_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "structured log verbosity (debug, info, warn, error)",
			Value:   "info",
			EnvVars: []string{"STORAGEMAPD_LOG_LEVEL"},
		},
	}
}

// FromContext resolves a Config from a populated cli.Context.
func FromContext(c *cli.Context) Config {
	return Config{
		Listen:   c.String(flagListen),
		DataDir:  c.String(flagDataDir),
		LogLevel: c.String(flagLogLevel),
	}
}
