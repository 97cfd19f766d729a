// Command estimate runs a single PM2.5 burn estimate from the command line.
// It fetches the forecast for the given site and hour from Open-Meteo, or
// uses -wind and -mixing directly when both are given.
//
// Usage:
//
//	go run ./cmd/estimate -lat 18.7883 -lng 98.9853 -area 100 -date 2026-03-15 -hour 9
//	go run ./cmd/estimate -area 100 -wind 2 -mixing 500
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/SurawutP/Projectpm2.5/internal/adapter/openmeteo"
	"github.com/SurawutP/Projectpm2.5/internal/domain"
	"github.com/SurawutP/Projectpm2.5/internal/observability"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

type options struct {
	coord     domain.Coordinate
	areaRai   float64
	date      string
	hour      int
	wind      float64
	mixing    float64
	direction float64
	offline   bool
	hasDir    bool
	asJSON    bool
	baseURL   string
	timeout   time.Duration
	location  *time.Location
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
	if err := run(context.Background(), opts, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options

	timezone := sharedcfg.EnvOrDefault("TIMEZONE", "Asia/Bangkok")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return opts, fmt.Errorf("invalid TIMEZONE %q: %w", timezone, err)
	}
	opts.location = loc
	now := domain.CurrentSchedule(loc)

	fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
	fs.Float64Var(&opts.coord.Lat, "lat", 18.7883, "site latitude")
	fs.Float64Var(&opts.coord.Lng, "lng", 98.9853, "site longitude")
	fs.Float64Var(&opts.areaRai, "area", 0, "burn area in rai (required)")
	fs.StringVar(&opts.date, "date", now.DateString(), "forecast date, YYYY-MM-DD in "+timezone)
	fs.IntVar(&opts.hour, "hour", now.Hour, "forecast hour, 0-23")
	fs.Float64Var(&opts.wind, "wind", 0, "wind speed in m/s; skips the forecast lookup with -mixing")
	fs.Float64Var(&opts.mixing, "mixing", 0, "mixing height in m; skips the forecast lookup with -wind")
	fs.Float64Var(&opts.direction, "direction", 0, "wind direction in degrees, offline mode only")
	fs.BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	fs.StringVar(&opts.baseURL, "url", sharedcfg.EnvOrDefault("OPENMETEO_URL", openmeteo.DefaultBaseURL), "Open-Meteo forecast endpoint")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "forecast request timeout")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["wind"] != set["mixing"] {
		return opts, errors.New("-wind and -mixing must be given together")
	}
	opts.offline = set["wind"]
	opts.hasDir = set["direction"]
	return opts, nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if err := opts.coord.Validate(); err != nil {
		return err
	}
	schedule, err := domain.ParseSchedule(opts.date, opts.hour, opts.location)
	if err != nil {
		return err
	}

	var reading domain.MeteorologicalReading
	if opts.offline {
		reading = domain.MeteorologicalReading{WindSpeed: &opts.wind, MixingHeight: &opts.mixing}
		if opts.hasDir {
			reading.WindDirection = &opts.direction
		}
	} else {
		if schedule.InPast() {
			return fmt.Errorf("%s: %w", schedule, domain.ErrPastTime)
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		client := openmeteo.NewClient(opts.baseURL, opts.timeout, observability.NewMetrics(), logger)
		reading, err = client.FetchReading(ctx, opts.coord, schedule.Date, schedule.Hour)
		if err != nil {
			return err
		}
	}

	result, err := domain.Estimate(opts.areaRai, reading)
	if err != nil {
		return err
	}
	result.Schedule = schedule
	result.SimulatedAt = domain.Now()

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printResult(out, opts, result)
}

func printResult(w io.Writer, opts options, r domain.SimulationResult) error {
	direction := "n/a"
	if r.WindDirection != nil {
		direction = fmt.Sprintf("%.0f°", *r.WindDirection)
	}
	_, err := fmt.Fprintf(w, `Site          %.4f, %.4f
Schedule      %s
Burn area     %.2f rai (%.2f acres, %.1f m²)
Wind          %.2f m/s from %s
Mixing height %.1f m
Emission rate %.3f
Plume width   %.2f m
PM2.5         %.2f µg/m³
Level         %s (%s)
`,
		opts.coord.Lat, opts.coord.Lng,
		r.Schedule,
		r.AreaRai, r.AreaAcres, r.AreaM2,
		r.WindSpeed, direction,
		r.MixingHeight,
		r.EmissionRate,
		r.PlumeWidth,
		r.ConcentrationUgM3,
		r.Level.Label, r.Level.Code,
	)
	return err
}
