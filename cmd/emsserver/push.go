package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/tomek7667/emsboard/internal/client"
	"github.com/tomek7667/emsboard/internal/domain"
)

var serverFlag = &cli.StringFlag{
	Name:    "server",
	Aliases: []string{"s"},
	EnvVars: []string{"EMS_SERVER"},
	Usage:   "base URL of a running emsserver",
	Value:   "http://localhost:7777",
}

// monitoredFile is the YAML layout of `push monitored`:
//
//	months:
//	  1: {factors: {hours: 720, hdd: 410}, actual_consumption: 1520}
type monitoredFile struct {
	Months map[int]struct {
		Factors map[string]*float64 `yaml:"factors"`
		Actual  *float64            `yaml:"actual_consumption"`
	} `yaml:"months"`
}

// enpiFile is the YAML layout of `push enpi`; numerator and denominator
// are only stored for manual sources.
type enpiFile struct {
	Months map[int]struct {
		Target      *float64 `yaml:"target"`
		Numerator   *float64 `yaml:"numerator"`
		Denominator *float64 `yaml:"denominator"`
	} `yaml:"months"`
}

func num(v *float64) domain.Num {
	if v == nil {
		return domain.None()
	}
	return domain.Some(*v)
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func cmdPush() *cli.Command {
	return &cli.Command{
		Name:  "push",
		Usage: "Send a year of monthly values from a YAML file to a running server",
		Subcommands: []*cli.Command{
			{
				Name:      "monitored",
				Usage:     "Monitored factors and actual consumption of a baseline",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{serverFlag, idFlag},
				Action: func(c *cli.Context) error {
					var f monitoredFile
					if err := readYAML(c.Args().First(), &f); err != nil {
						return err
					}
					months := make(map[int]domain.MonthData, len(f.Months))
					for m, v := range f.Months {
						data := domain.MonthData{Factors: domain.Observed{}, ActualConsumption: num(v.Actual)}
						for name, x := range v.Factors {
							data.Factors[name] = num(x)
						}
						months[m] = data
					}
					saved, err := client.New(c.String("server")).SaveMonitoredYear(c.Context, c.Int64("id"), months)
					return reportSaved(c, saved, err)
				},
			},
			{
				Name:      "enpi",
				Usage:     "Targets and manual values of an EnPI",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{serverFlag, idFlag, yearFlag},
				Action: func(c *cli.Context) error {
					var f enpiFile
					if err := readYAML(c.Args().First(), &f); err != nil {
						return err
					}
					rows := make([]domain.EnpiDataInput, 0, len(f.Months))
					for m, v := range f.Months {
						rows = append(rows, domain.EnpiDataInput{
							Month:            m,
							TargetValue:      num(v.Target),
							NumeratorValue:   num(v.Numerator),
							DenominatorValue: num(v.Denominator),
						})
					}
					saved, err := client.New(c.String("server")).SaveEnpiYear(c.Context, c.Int64("id"), c.Int("year"), rows)
					return reportSaved(c, saved, err)
				},
			},
		},
	}
}

func reportSaved(c *cli.Context, saved int, err error) error {
	if client.IsNothingToSave(err) {
		fmt.Fprintln(c.App.Writer, "no month has data, nothing sent")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "saved %d months\n", saved)
	return err
}
