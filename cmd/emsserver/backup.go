package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tomek7667/emsboard/internal/config"
)

func cmdBackup() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Copy the database while the server may keep running",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "backup file, defaults to a timestamped copy next to the database",
			},
		},
		Action: func(c *cli.Context) error {
			db, err := openStore(c)
			if err != nil {
				return err
			}
			defer db.Close()
			dst := c.String("out")
			if dst == "" {
				dst = backupPath(db.Path, time.Now())
			}
			if err := db.Backup(c.Context, dst); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, dst)
			return nil
		},
	}
}

// backupPath turns data/ems.db into data/ems-20240510-120000.db.
func backupPath(db string, now time.Time) string {
	ext := ".db"
	base := db
	if i := strings.LastIndex(db, "."); i > strings.LastIndexAny(db, `/\`) {
		base, ext = db[:i], db[i:]
	}
	return base + "-" + now.Format("20060102-150405") + ext
}

func cmdConfig() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the config file",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default config to --config",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
				},
				Action: func(c *cli.Context) error {
					path := c.String("config")
					if _, err := os.Stat(path); err == nil && !c.Bool("force") {
						return fmt.Errorf("%s already exists, use --force to overwrite", path)
					}
					if err := config.Default().Save(path); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, path)
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Print the effective config after flags and environment",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return cfg.Write(c.App.Writer)
				},
			},
		},
	}
}
