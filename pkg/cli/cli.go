// Package cli provides the command-line interface for screen-expect.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/screen-expect/pkg/config"
	"github.com/devicelab-dev/screen-expect/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to config.yaml (default: ./config.yaml if present)",
		EnvVars: []string{"SCREEN_EXPECT_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write the diagnostic log to this file",
		EnvVars: []string{"SCREEN_EXPECT_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Write the diagnostic log to stderr",
		EnvVars: []string{"SCREEN_EXPECT_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "screen-expect",
		Usage:   "Validate screens against expectation documents",
		Version: Version,
		Description: `screen-expect runs expectation documents against a screen: ordered
blocks of UI checks, data assertions, function calls and custom code,
stopping at the first failing block.

Examples:
  screen-expect lint expectations/
  screen-expect eval login.yaml --fixture login-screen.yaml
  screen-expect eval expectations/ --fixture app.yaml -e USER=ann --json
  screen-expect vars`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			lintCommand,
			evalCommand,
			varsCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging applies --log-file, then --verbose, then the config logFile.
// The returned func closes the log.
func setupLogging(c *cli.Context, cfg *config.Config) (func(), error) {
	path := c.String("log-file")
	if path == "" && cfg != nil {
		path = cfg.LogFile
	}

	switch {
	case c.Bool("verbose"):
		logger.SetOutput(os.Stderr)
	case path != "":
		if err := logger.Init(path); err != nil {
			return nil, err
		}
	default:
		return func() {}, nil
	}
	return logger.Close, nil
}

// loadConfig reads --config, or config.yaml/config.yml from the working
// directory when the flag is not set.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadFromDir(".")
}
