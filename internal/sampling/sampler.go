package sampling

import (
	"math/rand"

	"github.com/Meesho/BharatMLStack/gradflow/internal/codec"
	"github.com/Meesho/BharatMLStack/gradflow/internal/config"
	"github.com/rs/zerolog/log"
)

// Window computes the deterministic mod-100 slice claimed by one trainer of
// a bagging job. Different trainer indices claim non-overlapping slices of
// the fingerprint space, which is what keeps concurrently running bagging
// replicas from dropping the same records.
func Window(baggingNum, trainerID int, rate float64) (start, end int) {
	start = (100 / baggingNum) * trainerID
	end = start + int(rate*100)
	return start, end
}

// InWindow reports whether fingerprint%100 falls in [start, end), wrapping
// past 100 when the window crosses it.
func InWindow(fingerprint uint64, start, end int) bool {
	h := int(fingerprint % 100)
	if end <= 100 {
		return h >= start && h < end
	}
	return h >= start || h < end%100
}

// NegativeSampler probabilistically drops negative-class records ahead of
// shard assignment. Fixed-input mode keys the decision on the fingerprint so
// restarted workers drop the exact same records; random mode draws from a
// seeded worker-local generator.
type NegativeSampler struct {
	enabled     bool
	fixedWindow bool
	start, end  int
	bagRate     float64
	rnd         *rand.Rand
}

func NewNegativeSampler(cfg *config.JobConfig, trainerID int, rnd *rand.Rand) *NegativeSampler {
	train := cfg.Model.Train
	s := &NegativeSampler{
		enabled: train.SampleNegOnly && cfg.Model.RegressionLike(),
		bagRate: train.BaggingSampleRate,
		rnd:     rnd,
	}
	if s.enabled && train.FixInitialInput {
		s.fixedWindow = true
		// bagging rate is the kept fraction, so the dropped window is 1-rate
		s.start, s.end = Window(train.BaggingNum, trainerID, 1-train.BaggingSampleRate)
	}
	if s.enabled {
		log.Info().Msgf("Negative-only sampling enabled, fixedWindow=%v, bagRate=%f", s.fixedWindow, s.bagRate)
	}
	return s
}

// Drop reports whether the record should be discarded entirely. Dropped
// records are never stored and never counted.
func (s *NegativeSampler) Drop(fingerprint uint64, label float32) bool {
	if !s.enabled || !codec.IsNegativeLabel(label) {
		return false
	}
	if s.fixedWindow {
		return InWindow(fingerprint, s.start, s.end)
	}
	return s.rnd.Float64() > s.bagRate
}

// UpSampler boosts the weight of positive-class records by a Poisson draw.
// The multiplier is draw+1, so a boosted weight is always at least the
// original weight. Records are never duplicated.
type UpSampler struct {
	enabled bool
	dist    *Poisson
}

func NewUpSampler(cfg *config.JobConfig, rnd *rand.Rand) *UpSampler {
	train := cfg.Model.Train
	u := &UpSampler{}
	if train.UpSampleWeight != 1 && train.UpSampleWeight > 0 && cfg.Model.RegressionLike() {
		u.enabled = true
		u.dist = NewPoisson(train.UpSampleWeight-1, rnd)
		log.Info().Msgf("Enable up sampling with weight %f", train.UpSampleWeight)
	}
	return u
}

// Boost returns the possibly boosted weight for a record.
func (u *UpSampler) Boost(weight, label float32) float32 {
	if !u.enabled || !codec.IsPositiveLabel(label) {
		return weight
	}
	return weight * float32(u.dist.Sample()+1)
}
