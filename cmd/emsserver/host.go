package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/tomek7667/emsboard/internal/client"
	"github.com/tomek7667/emsboard/internal/collector"
	"github.com/tomek7667/emsboard/internal/domain"
)

func cmdHost() *cli.Command {
	return &cli.Command{
		Name:  "host",
		Usage: "Show the host the dashboard runs on",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "ask the server given by --server instead of probing this machine",
			},
			serverFlag,
		},
		Action: func(c *cli.Context) error {
			var (
				info domain.HostInfo
				err  error
			)
			if c.Bool("remote") {
				info, err = client.New(c.String("server")).Host(c.Context)
			} else {
				cfg, cfgErr := loadConfig(c)
				if cfgErr != nil {
					return cfgErr
				}
				info, err = collector.NewSystem(filepath.Dir(cfg.Database)).Info()
				if err != nil {
					fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
					err = nil
				}
			}
			if err != nil {
				return err
			}
			printHost(c.App.Writer, info, time.Now())
			return nil
		},
	}
}

func printHost(w io.Writer, info domain.HostInfo, now time.Time) {
	fmt.Fprintf(w, "hostname   %s\n", info.Hostname)
	if info.IP != "" {
		fmt.Fprintf(w, "address    %s\n", info.IP)
	}
	fmt.Fprintf(w, "system     %s %s\n", info.OS, info.Platform)
	fmt.Fprintf(w, "cpu        %s (%d logical cores)\n", info.CPUModel, info.LogicalCores)
	fmt.Fprintf(w, "memory     %s\n", humanize.IBytes(info.PhysicalMemory))
	if info.UptimeSeconds > 0 {
		booted := now.Add(-time.Duration(info.UptimeSeconds) * time.Second)
		fmt.Fprintf(w, "booted     %s\n", humanize.RelTime(booted, now, "ago", "from now"))
	}
	if d := info.Disk; d != nil {
		fmt.Fprintf(w, "disk       %s of %s used (%.1f%%) on %s\n",
			humanize.IBytes(d.Used), humanize.IBytes(d.Total), d.UsedPercent, d.Path)
	}
	if s := info.Latest; s != nil {
		fmt.Fprintf(w, "load       cpu %.1f%%, memory %.1f%% (%s)\n",
			s.CPUPercent, s.MemPercent, humanize.RelTime(s.SampledAt, now, "ago", "from now"))
	}
}
