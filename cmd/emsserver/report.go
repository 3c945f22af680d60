package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/tomek7667/emsboard/internal/baseline"
	"github.com/tomek7667/emsboard/internal/domain"
	"github.com/tomek7667/emsboard/internal/enpi"
	"github.com/tomek7667/emsboard/internal/export"
	"github.com/tomek7667/emsboard/internal/sqlite"
)

var (
	idFlag = &cli.Int64Flag{
		Name:     "id",
		Usage:    "baseline or EnPI id",
		Required: true,
	}
	yearFlag = &cli.IntFlag{
		Name:     "year",
		Aliases:  []string{"y"},
		Usage:    "report year",
		Required: true,
	}
)

func openStore(c *cli.Context) (*sqlite.Client, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	db, err := sqlite.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func cmdReport() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Print a monthly report from the database",
		Subcommands: []*cli.Command{
			{
				Name:  "baseline",
				Usage: "Baseline standard against actual consumption",
				Flags: []cli.Flag{idFlag},
				Action: func(c *cli.Context) error {
					db, err := openStore(c)
					if err != nil {
						return err
					}
					defer db.Close()
					d, err := db.Baseline(c.Context, c.Int64("id"))
					if err != nil {
						return err
					}
					return printBaseline(c.App.Writer, d, baseline.Report(d))
				},
			},
			{
				Name:  "enpi",
				Usage: "EnPI values and target achievement",
				Flags: []cli.Flag{idFlag, yearFlag},
				Action: func(c *cli.Context) error {
					db, err := openStore(c)
					if err != nil {
						return err
					}
					defer db.Close()
					report, err := enpi.Load(c.Context, db, c.Int64("id"), c.Int("year"))
					if err != nil {
						return err
					}
					return printEnpi(c.App.Writer, report)
				},
			},
		},
	}
}

func printBaseline(w io.Writer, d domain.BaselineDetail, rows []baseline.Row) error {
	fmt.Fprintf(w, "%s (%d)\n\n", d.Baseline.Name, d.Baseline.Year)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"month"}
	for _, f := range d.Factors {
		header = append(header, f.Name)
	}
	header = append(header, "actual", "standard", "diff", "diff %", "")
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, row := range rows {
		cols := []string{fmt.Sprint(row.Month)}
		for _, f := range d.Factors {
			cols = append(cols, baseline.Fixed(row.Factors[f.Name]))
		}
		mark := ""
		if row.Highlight {
			mark = "!"
		}
		cols = append(cols,
			baseline.Fixed(row.ActualConsumption),
			baseline.Fixed(row.BaselineStandard),
			baseline.Fixed(row.Diff),
			baseline.Fixed(row.DiffPercent),
			mark,
		)
		fmt.Fprintln(tw, strings.Join(cols, "\t")+"\t")
	}
	return tw.Flush()
}

func printEnpi(w io.Writer, report domain.EnpiReport) error {
	fmt.Fprintf(w, "%s [%s] %d\n\n", report.Definition.Name, report.Definition.Unit, report.Year)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "month\ttarget\tnumerator\tdenominator\tactual\tachievement %\tstatus\t")
	for _, row := range report.Report {
		rate := domain.None()
		if v, ok := row.AchievementRate.Get(); ok {
			rate = domain.Some(v * 100)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			row.MonthName,
			baseline.Fixed(row.TargetValue),
			baseline.Fixed(row.NumeratorValue),
			baseline.Fixed(row.DenominatorValue),
			baseline.Fixed(row.ActualEnpi),
			baseline.Fixed(rate),
			row.AchievementStatus,
		)
	}
	return tw.Flush()
}

func cmdExport() *cli.Command {
	outFlag := &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "directory the workbook is written to",
		Value:   ".",
	}
	return &cli.Command{
		Name:  "export",
		Usage: "Write a report as an xlsx workbook",
		Subcommands: []*cli.Command{
			{
				Name:  "baseline",
				Flags: []cli.Flag{idFlag, outFlag},
				Action: func(c *cli.Context) error {
					db, err := openStore(c)
					if err != nil {
						return err
					}
					defer db.Close()
					d, err := db.Baseline(c.Context, c.Int64("id"))
					if err != nil {
						return err
					}
					name := export.Filename("baseline", d.Baseline.Name, d.Baseline.Year)
					return writeWorkbook(c, name, func(w io.Writer) error {
						return export.Baseline(w, d, baseline.Report(d))
					})
				},
			},
			{
				Name:  "enpi",
				Flags: []cli.Flag{idFlag, yearFlag, outFlag},
				Action: func(c *cli.Context) error {
					db, err := openStore(c)
					if err != nil {
						return err
					}
					defer db.Close()
					report, err := enpi.Load(c.Context, db, c.Int64("id"), c.Int("year"))
					if err != nil {
						return err
					}
					name := export.Filename("enpi", report.Definition.Name, report.Year)
					return writeWorkbook(c, name, func(w io.Writer) error {
						return export.Enpi(w, report)
					})
				},
			},
		},
	}
}

// writeWorkbook renders into memory first so a failed export leaves no
// partial file behind.
func writeWorkbook(c *cli.Context, name string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	dir := c.String("out")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	fmt.Fprintln(c.App.Writer, path)
	return nil
}
