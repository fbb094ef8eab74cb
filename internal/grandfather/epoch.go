// Package grandfather values time-stamped accumulated points correctly
// across regulatory rule changes.
//
// A regulatory epoch is a dated rule change after which point valuation
// differs from before. The engine's job is fairness: a retroactive change
// must not destroy value a user already owns. Points acquired before an
// epoch's cutoff are "legacy" and may carry a conversion ratio >= 1 to
// compensate early accumulators; protection can expire via a sunset.
//
// All computations are pure functions over in-memory data. An unregistered
// (state, species) pair is not an error - it simply means no regulatory
// change applies and points count at face value.
package grandfather

// Epoch is one centrally registered regulatory rule change.
type Epoch struct {
	ID      string `json:"id"`
	StateID string `json:"state_id"`

	// SpeciesID empty means the epoch applies state-wide; set means it is
	// scoped to one species and takes precedence over a state-wide epoch.
	SpeciesID string `json:"species_id,omitempty"`

	// CutoffYear is the first year the new rules apply. Points acquired in
	// years strictly before it are legacy.
	CutoffYear int `json:"cutoff_year"`

	// ConversionRatio >= 1 inflates legacy point value under the new rules.
	ConversionRatio float64 `json:"conversion_ratio"`

	// SunsetYears, if set, bounds how many years after CutoffYear the
	// grandfather protection remains active. Nil means no sunset.
	SunsetYears *int `json:"sunset_years,omitempty"`
}

// SunsetActive reports whether the protection still applies at the
// evaluation year. No sunset means always active; otherwise active through
// CutoffYear+SunsetYears inclusive.
func (e Epoch) SunsetActive(evaluationYear int) bool {
	if e.SunsetYears == nil {
		return true
	}
	return evaluationYear-e.CutoffYear <= *e.SunsetYears
}

// Registry holds the static set of registered epochs and resolves which one
// applies to a (state, species) pair.
type Registry struct {
	epochs []Epoch
}

// NewRegistry creates a registry over the given epochs. The slice is copied;
// later mutation of the caller's slice cannot change resolution.
func NewRegistry(epochs ...Epoch) *Registry {
	r := &Registry{epochs: make([]Epoch, len(epochs))}
	copy(r.epochs, epochs)
	return r
}

// Epochs returns a copy of the registered epochs.
func (r *Registry) Epochs() []Epoch {
	out := make([]Epoch, len(r.epochs))
	copy(out, r.epochs)
	return out
}

// Lookup returns the applicable epoch for a (state, species) pair, or nil.
//
// Specificity is an explicit priority rule, not registration order: a
// species-scoped epoch for this exact pair beats a state-wide epoch for the
// same state.
func (r *Registry) Lookup(stateID, speciesID string) *Epoch {
	var stateWide *Epoch
	for i := range r.epochs {
		e := &r.epochs[i]
		if e.StateID != stateID {
			continue
		}
		if e.SpeciesID == speciesID && speciesID != "" {
			return e
		}
		if e.SpeciesID == "" && stateWide == nil {
			stateWide = e
		}
	}
	return stateWide
}

// sunset returns a pointer to n, for building epoch literals.
func sunset(n int) *int {
	return &n
}

// DefaultEpochs is the central registration point for known regulatory rule
// changes. Hosts needing a different set construct their own Registry.
var DefaultEpochs = []Epoch{
	{
		ID:              "wy-2027-point-averaging",
		StateID:         "WY",
		CutoffYear:      2027,
		ConversionRatio: 1.0,
	},
	{
		ID:              "mt-2024-bonus-squared",
		StateID:         "MT",
		CutoffYear:      2024,
		ConversionRatio: 1.5,
		SunsetYears:     sunset(5),
	},
	{
		ID:              "co-2026-elk-hybrid",
		StateID:         "CO",
		SpeciesID:       "elk",
		CutoffYear:      2026,
		ConversionRatio: 1.25,
	},
}

// DefaultRegistry returns a registry over DefaultEpochs.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultEpochs...)
}
