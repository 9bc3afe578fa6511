// Package status defines the per-sample carrier that flows through the
// thermal control pipeline once per tick (spec.md §3): a mapping from short
// string keys to float64, with the hottest keys promoted to named struct
// fields per the Design Notes (§9) guidance ("promote the common hot keys
// ... to named fields on a struct for the tight loop, with the map used for
// extension/logging columns").
package status

// Event identifies which EventLoop state produced a Status record.
type Event string

const (
	EventPreprocess  Event = "preprocess"
	EventTimer       Event = "timerEvent"
	EventKey         Event = "keyEvent"
	EventPostprocess Event = "postprocess"
)

// Status is the per-sample carrier. Hot fields used every tick by the
// controller/predictor/interface pipeline, and the governing stage's
// attributes, are named struct fields; anything else (tuning diagnostics,
// extension columns for the CSV logger) lives in Extra.
type Status struct {
	Event Event

	Now    float64
	Period float64

	Voltage    float64
	Current    float64
	Power      float64
	Resistance float64
	HasResistance bool

	Temperature float64
	Ambient     float64
	HasAmbient  bool

	DeviceTemperature    float64
	HasDeviceTemperature bool
	DeviceAmbient        float64
	HasDeviceAmbient     bool

	PredictTemperature float64
	ThenTemperature    float64
	NowTemperature     float64
	AnticipateTemperature float64
	AnticipatePeriod      float64
	HasAnticipation       bool

	SetPower float64

	StageName           string
	StageFan            bool
	StageDisableLimits  bool
	StageDisableCutoff  bool

	Key string

	// Extra carries any additional named values not promoted to a field
	// above, keyed by the dotted/short names used in spec.md §3 and the CSV
	// logger's column accessors.
	Extra map[string]float64
}

// New returns a Status for the given event with an initialized Extra map.
func New(event Event) *Status {
	return &Status{Event: event, Extra: map[string]float64{}}
}

// Set stores an extension value under key.
func (s *Status) Set(key string, value float64) {
	if s.Extra == nil {
		s.Extra = map[string]float64{}
	}
	s.Extra[key] = value
}

// Get retrieves an extension value, reporting whether it was present.
func (s *Status) Get(key string) (float64, bool) {
	v, ok := s.Extra[key]
	return v, ok
}

// Clone makes a shallow copy suitable for appending to history: the Extra
// map is copied so later mutation of the live Status doesn't retroactively
// change history.
func (s *Status) Clone() *Status {
	c := *s
	c.Extra = make(map[string]float64, len(s.Extra))
	for k, v := range s.Extra {
		c.Extra[k] = v
	}
	return &c
}
