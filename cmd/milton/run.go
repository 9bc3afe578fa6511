package main

import (
	"fmt"
	"time"

	"github.com/brettski74/milton/internal/config"
	"github.com/brettski74/milton/internal/eventloop"
	"github.com/brettski74/milton/internal/fanctl"
	"github.com/brettski74/milton/internal/logging"
	"github.com/brettski74/milton/internal/profile"
	"github.com/brettski74/milton/internal/remote"
	"github.com/brettski74/milton/internal/status"
	"github.com/brettski74/milton/internal/supply"
	"github.com/brettski74/milton/internal/thermal/controlloop"
	"github.com/brettski74/milton/internal/thermal/predictor"
	"github.com/brettski74/milton/internal/transport"
)

func runCommand(g *globalFlags, searchPath []string) error {
	cfg, err := config.Load(g.configFile, searchPath, g.overrides)
	if err != nil {
		return err
	}

	if g.hasAmbient {
		cfg.Controller.Ambient = g.ambient
	}
	if g.profile != "" {
		profileCfg, err := config.LoadProfile(g.profile, searchPath)
		if err != nil {
			return err
		}
		cfg.Profile = profileCfg
	}

	iface, err := buildSupply(cfg, g)
	if err != nil {
		return err
	}
	defer iface.Shutdown()

	controller, err := buildController(cfg, g, cfg.Period)
	if err != nil {
		return err
	}

	prof := buildProfile(cfg)

	fan, err := fanctl.New(cfg.Fan.Pin)
	if err != nil {
		return err
	}

	logOpts := logging.Options{
		Driver:   cfg.Logging.Driver,
		File:     cfg.Logging.File,
		Command:  "run",
		RunStart: time.Now(),
		InfluxDB: cfg.Logging.InfluxDB,
	}
	for _, c := range cfg.Logging.Columns {
		logOpts.Columns = append(logOpts.Columns, logging.ParseColumn(c))
	}
	for _, c := range g.logColumns {
		logOpts.Columns = append(logOpts.Columns, logging.ParseColumn(c))
	}
	if g.logger != "" {
		logOpts.Driver = g.logger
	}
	if g.logFile != "" {
		logOpts.File = g.logFile
	}

	logger, err := logging.New(logOpts)
	if err != nil {
		return err
	}

	if debugPath, resolveErr := config.Resolve("milton-debug.cfg", searchPath); resolveErr == nil {
		levels, levelsErr := config.ParseDebugLevels(debugPath)
		if levelsErr != nil {
			return levelsErr
		}
		logger = logging.DebugFilter{Logger: logger, Levels: levels, Namespace: "milton::logging", MinLevel: 1}
	}
	defer logger.Close()

	var statusServer *remote.StatusServer
	if cfg.Remote.Listen != "" {
		statusServer = remote.NewStatusServer()
		go func() {
			if err := statusServer.ListenAndServe(cfg.Remote.Listen); err != nil {
				fmt.Printf("status server stopped: %v\n", err)
			}
		}()
	}

	period := time.Duration(cfg.Period * float64(time.Second))

	cmd := runCommandCapabilities{logger: logger, statusServer: statusServer}
	loop := eventloop.New(iface, controller, prof, cmd, period)
	loop.Fan = fan
	if statusServer != nil {
		loop.Keys = statusServer.Keys()
	}

	_, err = loop.Run()
	return err
}

func buildSupply(cfg *config.Config, g *globalFlags) (*supply.Interface, error) {
	var backend supply.Backend
	port := g.device
	if port == "" && cfg.Device.Port != nil {
		port = *cfg.Device.Port
	}

	if port == "" {
		backend = supply.NewSimulatedBackend(cfg.Controller.Ambient, 10, 0.05)
	} else {
		backend = transport.NewSerialBackend(transport.SerialConfig{
			PortPath: port,
			BaudRate: cfg.Device.BaudRate,
			Timeout:  500 * time.Millisecond,
		})
	}

	iface := supply.New(backend)

	if g.reset {
		iface.ResetCalibration()
	} else {
		iface.SetVoltageCalibration(buildChannelCalibration(cfg.Device.Voltage))
		iface.SetCurrentCalibration(buildChannelCalibration(cfg.Device.Current))
	}

	iface.SetVoltageLimits(supply.Limits{Max: cfg.Device.VoltageMax})
	iface.SetCurrentLimits(supply.Limits{Max: cfg.Device.CurrentMax})
	iface.SetPowerLimits(supply.Limits{Max: cfg.Device.PowerMax})

	if err := iface.Connect(); err != nil {
		return nil, err
	}

	return iface, nil
}

func buildChannelCalibration(c config.ChannelCalibration) supply.ChannelCalibration {
	return supply.ChannelCalibration{
		Requested: supply.BuildTable(toCalibrationPoints(c.Requested)),
		Output:    supply.BuildTable(toCalibrationPoints(c.Output)),
		Setpoint:  supply.BuildTable(toCalibrationPoints(c.Setpoint)),
	}
}

func toCalibrationPoints(points []config.CalibrationPoint) []supply.CalibrationPoint {
	out := make([]supply.CalibrationPoint, len(points))
	for i, p := range points {
		out[i] = supply.CalibrationPoint{X: p.X, Y: p.Y}
	}
	return out
}

func buildController(cfg *config.Config, g *globalFlags, period float64) (*controlloop.HybridPI, error) {
	rtdPoints := toRTDPoints(cfg.Device.RTD)
	if g.r0 != "" {
		r, t, err := parseR0(g.r0)
		if err != nil {
			return nil, err
		}
		rtdPoints = append(rtdPoints, predictor.RTDPoint{Resistance: r, Temperature: t})
	}
	rtd := predictor.NewRTDTable(rtdPoints)

	pred := buildPredictor(cfg, period)

	c := controlloop.New(pred, rtd, controlloop.Params{
		Kp:   cfg.Controller.Kp,
		Ki:   cfg.Controller.Ki,
		Kaw:  cfg.Controller.Kaw,
		Pmin: cfg.Controller.Pmin,
		Pmax: cfg.Controller.Pmax,
	})
	c.SetDefaultAmbient(cfg.Controller.Ambient)

	powerLimit := cfg.Controller.PowerLimit
	if g.limit != "" {
		p, err := parseLimit(g.limit)
		if err != nil {
			return nil, err
		}
		powerLimit = append(powerLimit, p)
	}
	if len(powerLimit) > 0 {
		c.SetPowerLimit(supply.BuildTable(toCalibrationPoints(powerLimit)))
	}

	cutoff := cfg.Controller.Cutoff
	if g.hasCutoff {
		cutoff = float64(g.cutoff)
	}
	if cutoff > 0 {
		c.SetCutoffTemperature(cutoff)
	}

	return c, nil
}

func buildPredictor(cfg *config.Config, period float64) predictor.PowerPredictor {
	params := predictor.DoubleLPFParams{
		TauInner:      cfg.Controller.Predictor.TauInner,
		OuterOffset:   cfg.Controller.Predictor.OuterOffset,
		OuterGradient: cfg.Controller.Predictor.OuterGradient,
	}

	switch cfg.Controller.Predictor.Package {
	case "doublelpfpower":
		tauPower := supply.BuildTable(toCalibrationPoints(cfg.Controller.Predictor.TauPower))
		gain := supply.BuildTable(toCalibrationPoints(cfg.Controller.Predictor.Gain))
		return predictor.NewDoubleLPFPower(period, params, tauPower, gain)
	case "doublelpf":
		return &zeroFeedforward{inner: predictor.NewDoubleLPF(period, params)}
	default:
		return &zeroFeedforward{inner: predictor.NewPassThrough()}
	}
}

// zeroFeedforward adapts a Predictor without a feed-forward inversion
// into a PowerPredictor contributing no feed-forward term, so
// "passthrough" and "doublelpf" remain selectable even though only
// DoubleLPFPower implements PredictPower natively.
type zeroFeedforward struct {
	inner predictor.Predictor
}

func (z *zeroFeedforward) PredictTemperature(s *status.Status) float64 {
	return z.inner.PredictTemperature(s)
}

func (z *zeroFeedforward) PredictPower(*status.Status) float64 { return 0 }

func toRTDPoints(points []config.RTDPoint) []predictor.RTDPoint {
	out := make([]predictor.RTDPoint, len(points))
	for i, p := range points {
		out[i] = predictor.RTDPoint{Resistance: p.Resistance, Temperature: p.Temperature}
	}
	return out
}

func buildProfile(cfg *config.Config) *profile.Engine {
	stages := make([]profile.Stage, len(cfg.Profile))
	for i, s := range cfg.Profile {
		stages[i] = profile.Stage{
			Name:          s.Name,
			Seconds:       s.Seconds,
			Temperature:   s.Temperature,
			Fan:           s.Fan,
			DisableLimits: s.DisableLimits,
			DisableCutoff: s.DisableCutoff,
		}
	}
	p := profile.New(stages)
	p.SetDefaultAmbient(cfg.Controller.Ambient)
	return p
}
