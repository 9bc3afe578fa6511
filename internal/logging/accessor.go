package logging

import "github.com/brettski74/milton/internal/status"

// accessor reads one dotted-path column out of a Status record (spec.md
// §9's "expose a pre-compiled accessor per column, built once at logger
// construction").
type accessor func(*status.Status) interface{}

// namedAccessors maps the dotted column keys spec.md §3/§6 name to the
// promoted struct fields they address. Any key absent from this table
// falls back to Status.Extra, the extension map for tuning diagnostics
// and other logging-only columns.
var namedAccessors = map[string]accessor{
	"event":  func(s *status.Status) interface{} { return string(s.Event) },
	"now":    func(s *status.Status) interface{} { return s.Now },
	"period": func(s *status.Status) interface{} { return s.Period },

	"voltage":    func(s *status.Status) interface{} { return s.Voltage },
	"current":    func(s *status.Status) interface{} { return s.Current },
	"power":      func(s *status.Status) interface{} { return s.Power },
	"resistance": func(s *status.Status) interface{} { return s.Resistance },

	"temperature": func(s *status.Status) interface{} { return s.Temperature },
	"ambient":     func(s *status.Status) interface{} { return s.Ambient },

	"device.temperature": func(s *status.Status) interface{} { return s.DeviceTemperature },
	"device.ambient":     func(s *status.Status) interface{} { return s.DeviceAmbient },

	"predict.temperature":    func(s *status.Status) interface{} { return s.PredictTemperature },
	"then.temperature":       func(s *status.Status) interface{} { return s.ThenTemperature },
	"now.temperature":        func(s *status.Status) interface{} { return s.NowTemperature },
	"anticipate.temperature": func(s *status.Status) interface{} { return s.AnticipateTemperature },
	"anticipate.period":      func(s *status.Status) interface{} { return s.AnticipatePeriod },

	"set.power": func(s *status.Status) interface{} { return s.SetPower },

	"stage.name":           func(s *status.Status) interface{} { return s.StageName },
	"stage.fan":             func(s *status.Status) interface{} { return s.StageFan },
	"stage.disable.limits": func(s *status.Status) interface{} { return s.StageDisableLimits },
	"stage.disable.cutoff": func(s *status.Status) interface{} { return s.StageDisableCutoff },

	"key": func(s *status.Status) interface{} { return s.Key },
}

// compileAccessor pre-compiles the accessor for a single dotted column
// key, falling back to an Extra map lookup for keys not promoted to a
// struct field.
func compileAccessor(key string) accessor {
	if a, ok := namedAccessors[key]; ok {
		return a
	}

	return func(s *status.Status) interface{} {
		v, ok := s.Get(key)
		if !ok {
			return ""
		}
		return v
	}
}
