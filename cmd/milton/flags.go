package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/brettski74/milton/internal/config"
)

// globalFlags is the set of flags spec.md §6 names as recognized by every
// subcommand's dispatcher, parsed the way the teacher's flat main()
// reaches straight into a Config struct rather than a framework.
type globalFlags struct {
	configFile string
	overrides  stringList
	libraries  stringList
	device     string
	logColumns stringList
	logFile    string
	logger     string
	ambient    float64
	hasAmbient bool
	profile    string
	reset      bool
	r0         string
	cutoff     int
	hasCutoff  bool
	limit      string
}

// stringList accumulates repeatable flag values (spec.md §6: `--override`,
// `--library` and `--log` are all repeatable).
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// registerGlobalFlags installs spec.md §6's global flags on fs and returns
// the globalFlags they'll populate once fs.Parse runs, plus a finalize
// closure that converts the raw string-typed --ambient/--cutoff flags
// into their typed, has-a-value form after parsing.
func registerGlobalFlags(fs *flag.FlagSet) (*globalFlags, func() error) {
	g := &globalFlags{}

	fs.StringVar(&g.configFile, "config", "milton.yaml", "configuration file")
	fs.Var(&g.overrides, "override", "[dotted.path:]file override, repeatable")
	fs.Var(&g.libraries, "library", "directory prepended to the config search path, repeatable")
	fs.StringVar(&g.device, "device", "", "serial device path")
	fs.Var(&g.logColumns, "log", "key[:fmt] CSV column, repeatable")
	fs.StringVar(&g.logFile, "logfile", "", "CSV log filename template (%c/%d expanded)")
	fs.StringVar(&g.logger, "logger", "", "logger driver package (noop|stdout|csv|influxdb)")
	ambient := fs.String("ambient", "", "ambient temperature override")
	fs.StringVar(&g.profile, "profile", "", "profile file")
	fs.BoolVar(&g.reset, "reset", false, "reset supply calibration before running")
	fs.StringVar(&g.r0, "r0", "", "R0[:T] cold resistance (R>500 interpreted as milliohms)")
	cutoff := fs.String("cutoff", "", "thermal cutoff temperature in degrees C")
	fs.StringVar(&g.limit, "limit", "", "T:P power-limit curve point, repeatable via config")

	finalize := func() error {
		if *ambient != "" {
			v, err := strconv.ParseFloat(*ambient, 64)
			if err != nil {
				return fmt.Errorf("--ambient: %w", err)
			}
			g.ambient, g.hasAmbient = v, true
		}

		if *cutoff != "" {
			v, err := strconv.Atoi(*cutoff)
			if err != nil {
				return fmt.Errorf("--cutoff: %w", err)
			}
			g.cutoff, g.hasCutoff = v, true
		}

		return nil
	}

	return g, finalize
}

// parseGlobalFlags registers and parses spec.md §6's global flags in one
// step, for subcommands (like `run`) that take no flags of their own.
func parseGlobalFlags(fs *flag.FlagSet, args []string) (*globalFlags, error) {
	g, finalize := registerGlobalFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := finalize(); err != nil {
		return nil, err
	}

	return g, nil
}

// parseR0 splits the `--r0 <R[:T]>` flag, interpreting R>500 as
// milliohms (spec.md §6) and defaulting T to 25C.
func parseR0(spec string) (resistance, temperature float64, err error) {
	temperature = 25

	parts := strings.SplitN(spec, ":", 2)
	r, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --r0 resistance: %w", err)
	}
	if r > 500 {
		r /= 1000
	}

	if len(parts) == 2 {
		t, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --r0 temperature: %w", err)
		}
		temperature = t
	}

	return r, temperature, nil
}

// parseLimit splits the `--limit <T:P>` flag (spec.md §6) into a single
// power-limit curve point.
func parseLimit(spec string) (config.CalibrationPoint, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return config.CalibrationPoint{}, fmt.Errorf("invalid --limit %q: expected T:P", spec)
	}

	t, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return config.CalibrationPoint{}, fmt.Errorf("invalid --limit temperature: %w", err)
	}
	p, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return config.CalibrationPoint{}, fmt.Errorf("invalid --limit power: %w", err)
	}

	return config.CalibrationPoint{X: t, Y: p}, nil
}
