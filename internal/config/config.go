// Package config implements Milton's configuration layer: YAML documents
// with `!include`/`?`-optional directives and `$VAR`/`${VAR}` environment
// expansion, resolved against a search path (first match wins) with any
// override documents merged on top, then unmarshalled
// and validated exactly the way the teacher's config package does it
// (mapstructure tags into a typed struct, github.com/spf13/viper for
// loading/merging, github.com/go-playground/validator/v10 for
// validation).
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/brettski74/milton/internal/milerr"
)

// Config is the root configuration document (spec.md §3's "Config
// document").
type Config struct {
	Period     float64    `mapstructure:"period" validate:"required,gt=0"`
	Device     Device     `mapstructure:"device" validate:"required"`
	Controller Controller `mapstructure:"controller" validate:"required"`
	Profile    []Stage    `mapstructure:"profile" validate:"required,dive"`
	Logging    Logging    `mapstructure:"logging"`
	Remote     Remote     `mapstructure:"remote"`
	Fan        Fan        `mapstructure:"fan"`
}

// Device describes the power supply connection and its calibration.
type Device struct {
	Port        *string          `mapstructure:"port"`
	BaudRate    int              `mapstructure:"baudRate"`
	R0          *float64         `mapstructure:"r0"`
	R0Temperature float64        `mapstructure:"r0Temperature"`
	RTD         []RTDPoint       `mapstructure:"rtd" validate:"required,min=2,dive"`
	Voltage     ChannelCalibration `mapstructure:"voltage"`
	Current     ChannelCalibration `mapstructure:"current"`
	VoltageMax  float64          `mapstructure:"voltageMax" validate:"required"`
	CurrentMax  float64          `mapstructure:"currentMax" validate:"required"`
	PowerMax    float64          `mapstructure:"powerMax" validate:"required"`
}

// RTDPoint mirrors predictor.RTDPoint for config-file unmarshalling.
type RTDPoint struct {
	Resistance  float64 `mapstructure:"resistance" validate:"required"`
	Temperature float64 `mapstructure:"temperature"`
}

// CalibrationPoint mirrors supply.CalibrationPoint for config-file
// unmarshalling.
type CalibrationPoint struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
}

// ChannelCalibration is the config-file shape of supply.ChannelCalibration.
type ChannelCalibration struct {
	Requested []CalibrationPoint `mapstructure:"requested"`
	Output    []CalibrationPoint `mapstructure:"output"`
	Setpoint  []CalibrationPoint `mapstructure:"setpoint"`
}

// Controller configures the HybridPI controller and its predictor.
type Controller struct {
	Kp             float64            `mapstructure:"kp" validate:"required"`
	Ki             float64            `mapstructure:"ki"`
	Kaw            float64            `mapstructure:"kaw"`
	Pmin           float64            `mapstructure:"pmin"`
	Pmax           float64            `mapstructure:"pmax" validate:"required"`
	Ambient        float64            `mapstructure:"ambient"`
	Cutoff         float64            `mapstructure:"cutoff"`
	PowerLimit     []CalibrationPoint `mapstructure:"powerLimit"`
	Predictor      PredictorConfig    `mapstructure:"predictor" validate:"required"`
}

// PredictorConfig selects and parameterizes the thermal predictor.
type PredictorConfig struct {
	Package       string             `mapstructure:"package" validate:"oneof=passthrough doublelpf doublelpfpower"`
	TauInner      float64            `mapstructure:"tauInner"`
	OuterOffset   float64            `mapstructure:"outerOffset"`
	OuterGradient float64            `mapstructure:"outerGradient"`
	TauPower      []CalibrationPoint `mapstructure:"tauPower"`
	Gain          []CalibrationPoint `mapstructure:"gain"`
}

// Stage mirrors profile.Stage for config-file unmarshalling.
type Stage struct {
	Name          string  `mapstructure:"name" validate:"required"`
	Seconds       float64 `mapstructure:"seconds" validate:"required"`
	Temperature   float64 `mapstructure:"temperature"`
	Fan           bool    `mapstructure:"fan"`
	DisableLimits bool    `mapstructure:"disableLimits"`
	DisableCutoff bool    `mapstructure:"disableCutoff"`
}

// Logging selects the run's data-logger driver.
type Logging struct {
	Driver   string   `mapstructure:"driver" validate:"oneof=noop stdout csv influxdb"`
	Columns  []string `mapstructure:"columns"`
	File     string   `mapstructure:"file"`
	InfluxDB InfluxDB `mapstructure:"influxdb"`
}

// InfluxDB holds connection details for the influxdb logging driver.
type InfluxDB struct {
	Host   string `mapstructure:"host"`
	Token  string `mapstructure:"token"`
	Org    string `mapstructure:"org"`
	Bucket string `mapstructure:"bucket"`
}

// Remote configures the read-only status API and the Redis-backed
// ambient/profile override store.
type Remote struct {
	Listen string `mapstructure:"listen"`
	Redis  Redis  `mapstructure:"redis"`
}

// Redis holds connection details for the override store.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Fan configures the GPIO fan actuator.
type Fan struct {
	Pin string `mapstructure:"pin"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("period", 1.0)

	v.SetDefault("device.baudRate", 9600)
	v.SetDefault("device.r0Temperature", 25)

	v.SetDefault("controller.ki", 0)
	v.SetDefault("controller.kaw", 0)
	v.SetDefault("controller.pmin", 0)
	v.SetDefault("controller.ambient", 25)
	v.SetDefault("controller.predictor.package", "passthrough")

	v.SetDefault("logging.driver", "noop")

	v.SetDefault("remote.redis.db", 0)
}

// Load reads, preprocesses and validates the configuration document found
// by searching the resolved search path (see SearchPath) for filename,
// applying any --override documents on top in the order given, so a later
// override wins over an earlier one and over the base document.
func Load(filename string, searchPath []string, overrides []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	path, err := Resolve(filename, searchPath)
	if err != nil {
		return nil, err
	}

	doc, err := Preprocess(path, searchPath)
	if err != nil {
		return nil, err
	}

	if err := v.ReadConfig(strings.NewReader(doc)); err != nil {
		return nil, milerr.Wrap(milerr.ConfigParse, fmt.Sprintf("parsing %s", path), err)
	}

	for _, override := range overrides {
		overridePath, prefix, err := splitOverride(override)
		if err != nil {
			return nil, err
		}

		resolvedOverride, err := Resolve(overridePath, searchPath)
		if err != nil {
			return nil, err
		}

		overrideDoc, err := Preprocess(resolvedOverride, searchPath)
		if err != nil {
			return nil, err
		}

		ov := viper.New()
		ov.SetConfigType("yaml")
		if err := ov.ReadConfig(strings.NewReader(overrideDoc)); err != nil {
			return nil, milerr.Wrap(milerr.ConfigParse, fmt.Sprintf("parsing override %s", resolvedOverride), err)
		}

		settings := ov.AllSettings()
		if prefix != "" {
			settings = nest(strings.Split(prefix, "."), settings)
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return nil, milerr.Wrap(milerr.ConfigParse, fmt.Sprintf("merging override %s", resolvedOverride), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, milerr.Wrap(milerr.ConfigParse, "unmarshalling configuration", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, milerr.Wrap(milerr.ConfigParse, "validating configuration", err)
	}

	return &cfg, nil
}

// LoadProfile reads a standalone profile document (spec.md §6's
// `--profile <file>` flag): a bare YAML list of stages, preprocessed the
// same way as the main configuration document.
func LoadProfile(filename string, searchPath []string) ([]Stage, error) {
	path, err := Resolve(filename, searchPath)
	if err != nil {
		return nil, err
	}

	doc, err := Preprocess(path, searchPath)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader("profile:\n" + indentBlock(doc, "  "))); err != nil {
		return nil, milerr.Wrap(milerr.ConfigParse, fmt.Sprintf("parsing profile %s", path), err)
	}

	var wrapper struct {
		Profile []Stage `mapstructure:"profile" validate:"required,dive"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return nil, milerr.Wrap(milerr.ConfigParse, "unmarshalling profile", err)
	}

	validate := validator.New()
	if err := validate.Struct(&wrapper); err != nil {
		return nil, milerr.Wrap(milerr.ConfigParse, "validating profile", err)
	}

	return wrapper.Profile, nil
}

// nest wraps value in a chain of single-key maps, one per path segment,
// innermost segment closest to value.
func nest(path []string, value map[string]interface{}) map[string]interface{} {
	if len(path) == 0 {
		return value
	}
	return map[string]interface{}{path[0]: nest(path[1:], value)}
}

// splitOverride parses the `--override <[dotted.path:]file>` syntax
// (spec.md §6).
func splitOverride(spec string) (path string, prefix string, err error) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == ':' {
			return spec[i+1:], spec[:i], nil
		}
	}
	return spec, "", nil
}
