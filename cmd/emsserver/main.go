package main

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/urfave/cli/v2"

	"github.com/tomek7667/emsboard/internal/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:        "emsserver",
		Description: "energy management dashboard: baselines, EnPIs, real-time charts and events on a local sqlite database",
		Usage:       "serve the dashboard or work with its database (use subcommands)",
		Version:     appVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				EnvVars: []string{"EMS_CONFIG"},
				Value:   "emsboard.yaml",
				Usage:   "YAML config file, missing means defaults",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				EnvVars: []string{"EMS_PORT"},
				Usage:   "override the configured port",
			},
			&cli.StringFlag{
				Name:    "db",
				EnvVars: []string{"EMS_DB"},
				Usage:   "override the configured sqlite database path",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"EMS_LOG_LEVEL"},
				Usage:   "override the configured log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdReport(),
			cmdExport(),
			cmdPush(),
			cmdHost(),
			cmdBackup(),
			cmdConfig(),
		},
		CommandNotFound: func(c *cli.Context, command string) {
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
			cli.ShowAppHelpAndExit(c, 1)
		},
		Action:       runServe,
		BashComplete: cli.ShowCompletions,
	}
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("db") {
		cfg.Database = c.String("db")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	return cfg, cfg.Validate()
}

func appVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return "unknown"
	}

	version := bi.Main.Version
	var rev string
	var modified bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if version != "" && version != "(devel)" {
		return version
	}
	if rev != "" {
		if modified {
			return rev + " (modified)"
		}
		return rev
	}
	if version != "" {
		return version
	}
	return "unknown"
}
