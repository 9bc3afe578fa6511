package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brettski74/milton/internal/config"
	"github.com/brettski74/milton/internal/status"
	"github.com/brettski74/milton/internal/thermal/predictor"
	"github.com/brettski74/milton/internal/tuner"
)

// parseTuneFlags registers spec.md §6's global flags alongside `milton
// tune`'s own flags on a single FlagSet, parses args once, and returns
// both. The combined registration avoids flag.FlagSet.Parse being called
// twice against the same set, which flag forbids.
func parseTuneFlags(fs *flag.FlagSet, args []string) (*globalFlags, *tuneFlags, error) {
	g, finalizeGlobal := registerGlobalFlags(fs)
	t := defaultTuneFlags()

	fs.StringVar(&t.historyFile, "history", "", "CSV run history recorded by `milton run`'s csv logger")
	fs.Float64Var(&t.tauInnerLo, "tau-inner-lo", t.tauInnerLo, "lower bound for the inner filter time constant")
	fs.Float64Var(&t.tauInnerHi, "tau-inner-hi", t.tauInnerHi, "upper bound for the inner filter time constant")
	fs.Float64Var(&t.outerOffsetLo, "outer-offset-lo", t.outerOffsetLo, "lower bound for the outer filter offset")
	fs.Float64Var(&t.outerOffsetHi, "outer-offset-hi", t.outerOffsetHi, "upper bound for the outer filter offset")
	fs.Float64Var(&t.outerGradientLo, "outer-gradient-lo", t.outerGradientLo, "lower bound for the outer filter gradient")
	fs.Float64Var(&t.outerGradientHi, "outer-gradient-hi", t.outerGradientHi, "upper bound for the outer filter gradient")
	fs.Float64Var(&t.timeLo, "time-lo", t.timeLo, "discard samples before this run time in seconds")
	fs.Float64Var(&t.timeHi, "time-hi", t.timeHi, "discard samples after this run time in seconds")
	fs.Float64Var(&t.tempLo, "temp-lo", t.tempLo, "discard samples below this temperature")
	fs.Float64Var(&t.tempHi, "temp-hi", t.tempHi, "discard samples above this temperature")
	fs.IntVar(&t.steps, "steps", t.steps, "grid steps per axis per round")
	fs.Float64Var(&t.threshold, "threshold", t.threshold, "convergence threshold per axis")
	fs.StringVar(&t.plotFile, "plot", "", "optional PNG path to chart the fitted predictor against recorded history")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if err := finalizeGlobal(); err != nil {
		return nil, nil, err
	}

	if t.historyFile == "" {
		return nil, nil, fmt.Errorf("--history is required")
	}

	return g, t, nil
}

// tuneCommand implements `milton tune` (spec.md §4.10a): it fits a
// predictor's DoubleLPF parameters against a previously recorded CSV run
// history, using the offline MinimumSearch grid descent rather than the
// CandidateSearch background loop.
func tuneCommand(g *globalFlags, tuneFlags *tuneFlags, searchPath []string) error {
	cfg, err := config.Load(g.configFile, searchPath, g.overrides)
	if err != nil {
		return err
	}

	history, err := loadHistory(tuneFlags.historyFile)
	if err != nil {
		return err
	}

	model := &doubleLPFModel{
		period: cfg.Period,
		params: predictor.DoubleLPFParams{
			TauInner:      cfg.Controller.Predictor.TauInner,
			OuterOffset:   cfg.Controller.Predictor.OuterOffset,
			OuterGradient: cfg.Controller.Predictor.OuterGradient,
		},
	}

	axes := []tuner.ParamVector{
		{Name: "tauInner", Lo: tuneFlags.tauInnerLo, Hi: tuneFlags.tauInnerHi},
		{Name: "outerOffset", Lo: tuneFlags.outerOffsetLo, Hi: tuneFlags.outerOffsetHi},
		{Name: "outerGradient", Lo: tuneFlags.outerGradientLo, Hi: tuneFlags.outerGradientHi},
	}

	search := tuner.NewMinimumSearch(tuneFlags.steps, tuneFlags.threshold)
	t := tuner.NewTuner(model, search)

	result, err := t.Fit(history, axes, tuneFlags.timeLo, tuneFlags.timeHi, tuneFlags.tempLo, tuneFlags.tempHi, nil)
	if err != nil {
		return err
	}

	fmt.Printf("package: %s\n", result.PackageTag)
	fmt.Printf("sse: %.4f\n", result.SSE)
	for _, a := range axes {
		fmt.Printf("%s: %.6f\n", a.Name, result.Params[a.Name])
	}

	if tuneFlags.plotFile != "" {
		model.ApplyParams([]float64{
			result.Params["tauInner"],
			result.Params["outerOffset"],
			result.Params["outerGradient"],
		})
		if err := tuner.PlotFit(history, model, tuneFlags.plotFile); err != nil {
			return err
		}
	}

	return nil
}

// doubleLPFModel adapts a fresh DoubleLPF predictor to tuner.Model: each
// ApplyParams call rebuilds the predictor from scratch so Predict always
// replays the full history from a cold start, matching how the predictor
// behaves at the start of a real run.
type doubleLPFModel struct {
	period float64
	params predictor.DoubleLPFParams
	dlpf   *predictor.DoubleLPF
}

func (m *doubleLPFModel) ApplyParams(values []float64) {
	m.params.TauInner = values[0]
	m.params.OuterOffset = values[1]
	m.params.OuterGradient = values[2]
	m.dlpf = predictor.NewDoubleLPF(m.period, m.params)
}

func (m *doubleLPFModel) Predict(s *status.Status) float64 {
	return m.dlpf.PredictTemperature(s)
}

func (m *doubleLPFModel) PackageTag() string { return "doublelpf" }

// loadHistory reads a CSV run history in the format logging.CSV writes:
// a header row of dotted-path column keys, then one status record per
// line. Only the columns the tuner's objective actually reads (now,
// temperature, ambient) need to resolve; everything else is carried in
// Extra for completeness.
func loadHistory(path string) ([]*status.Status, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	history := make([]*status.Status, 0, len(rows)-1)

	for _, row := range rows[1:] {
		s := &status.Status{}
		for i, key := range header {
			if i >= len(row) {
				continue
			}
			applyHistoryField(s, key, row[i])
		}
		history = append(history, s)
	}

	return history, nil
}

func applyHistoryField(s *status.Status, key, value string) {
	switch key {
	case "now":
		s.Now, _ = strconv.ParseFloat(value, 64)
	case "period":
		s.Period, _ = strconv.ParseFloat(value, 64)
	case "temperature":
		s.Temperature, _ = strconv.ParseFloat(value, 64)
	case "ambient":
		s.Ambient, _ = strconv.ParseFloat(value, 64)
		s.HasAmbient = true
	case "power":
		s.Power, _ = strconv.ParseFloat(value, 64)
	case "set.power":
		s.SetPower, _ = strconv.ParseFloat(value, 64)
	case "stage.name":
		s.StageName = value
	default:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			s.Set(key, f)
		}
	}
}

// tuneFlags holds the `milton tune` subcommand's own flags, kept apart
// from globalFlags (though parsed on the same FlagSet) since
// --tau-inner-lo and friends are meaningless to `run`.
type tuneFlags struct {
	historyFile string

	tauInnerLo, tauInnerHi          float64
	outerOffsetLo, outerOffsetHi    float64
	outerGradientLo, outerGradientHi float64

	timeLo, timeHi float64
	tempLo, tempHi float64

	steps     int
	threshold float64

	plotFile string
}

func defaultTuneFlags() *tuneFlags {
	return &tuneFlags{
		tauInnerLo: 1, tauInnerHi: 120,
		outerOffsetLo: 0, outerOffsetHi: 600,
		outerGradientLo: 0, outerGradientHi: 20,
		timeLo: 0, timeHi: float64(24 * time.Hour / time.Second),
		tempLo: 0, tempHi: 500,
		steps:     8,
		threshold: 0.01,
	}
}
