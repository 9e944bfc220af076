package shard

// Metrics accumulates per-class shard counts during the load phase. The
// struct is owned exclusively by the loader while loading and is read-only
// afterwards; counters only ever increase.
type Metrics struct {
	PositiveTrain      int64
	NegativeTrain      int64
	PositiveValidation int64
	NegativeValidation int64
}

// Apply records one classification decision.
func (m *Metrics) Apply(d Decision) {
	switch {
	case d.Shard == Training && d.Positive:
		m.PositiveTrain++
	case d.Shard == Training:
		m.NegativeTrain++
	case d.Positive:
		m.PositiveValidation++
	default:
		m.NegativeValidation++
	}
}

// TrainCount returns the total number of records classified into training.
func (m *Metrics) TrainCount() int64 {
	return m.PositiveTrain + m.NegativeTrain
}

// ValidationCount returns the total number of records classified into
// validation.
func (m *Metrics) ValidationCount() int64 {
	return m.PositiveValidation + m.NegativeValidation
}
