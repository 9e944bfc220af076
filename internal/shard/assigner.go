package shard

import (
	"math/rand"

	"github.com/Meesho/BharatMLStack/gradflow/internal/codec"
	"github.com/Meesho/BharatMLStack/gradflow/internal/config"
	"github.com/Meesho/BharatMLStack/gradflow/internal/sampling"
	"github.com/rs/zerolog/log"
)

// Shard is the destination of an accepted record.
type Shard int

const (
	Training Shard = iota
	Validation
)

// Policy is the shard-assignment policy of a job, resolved once at
// initialization and never changed mid-job.
type Policy int

const (
	PolicyTrainOnly Policy = iota
	PolicyKFold
	PolicyManual
	PolicyRandomSplit
)

// Decision is the outcome of classifying one record: which shard it belongs
// to and whether it carries a positive label. Counter updates are applied by
// the caller so the policy itself stays a pure function of its inputs.
type Decision struct {
	Shard    Shard
	Positive bool
}

// Assigner decides train/validation placement for every accepted record.
type Assigner struct {
	policy     Policy
	kFold      int
	trainerID  int
	validRate  float64
	stratified bool

	// fixed-window split reuses the deterministic mod-100 scheme of
	// negative down-sampling, keyed on the validation rate
	fixedWindow bool
	start, end  int

	// one generator per class under stratified sampling, a single shared
	// one otherwise (class key 0)
	seed     int64
	classRnd map[int]*rand.Rand
}

func NewAssigner(cfg *config.JobConfig, trainerID int) *Assigner {
	train := cfg.Model.Train
	a := &Assigner{
		trainerID:  trainerID,
		validRate:  train.ValidSetRate,
		stratified: train.StratifiedSample,
		seed:       train.Seed,
		classRnd:   make(map[int]*rand.Rand),
	}
	switch {
	case train.NumKFold > 0:
		a.policy = PolicyKFold
		a.kFold = train.NumKFold
		log.Info().Msgf("Cross validation is enabled by numKFold: %d", a.kFold)
	case cfg.Model.ManualValidation():
		a.policy = PolicyManual
	case train.ValidSetRate > 0:
		a.policy = PolicyRandomSplit
		if train.FixInitialInput {
			a.fixedWindow = true
			a.start, a.end = sampling.Window(train.BaggingNum, trainerID, train.ValidSetRate)
		}
	default:
		a.policy = PolicyTrainOnly
	}
	return a
}

func (a *Assigner) Policy() Policy {
	return a.policy
}

// Classify places one record. manualValidation is the out-of-band flag the
// upstream reader attaches to records originating from a pre-declared
// validation path; it is only consulted under the manual policy.
func (a *Assigner) Classify(fingerprint uint64, label float32, manualValidation bool) Decision {
	d := Decision{Shard: Training, Positive: codec.IsPositiveLabel(label)}
	switch a.policy {
	case PolicyKFold:
		if int(fingerprint%uint64(a.kFold)) == a.trainerID {
			d.Shard = Validation
		}
	case PolicyManual:
		if manualValidation {
			d.Shard = Validation
		}
	case PolicyRandomSplit:
		if a.fixedWindow {
			if sampling.InWindow(fingerprint, a.start, a.end) {
				d.Shard = Validation
			}
		} else {
			// draw >= rate keeps the record in training
			if a.classDraw(label) < a.validRate {
				d.Shard = Validation
			}
		}
	case PolicyTrainOnly:
		// always training
	}
	return d
}

func (a *Assigner) classDraw(label float32) float64 {
	classValue := 0
	if a.stratified {
		classValue = int(label + 0.01)
	}
	rnd, ok := a.classRnd[classValue]
	if !ok {
		rnd = rand.New(rand.NewSource(a.seed + int64(classValue)))
		a.classRnd[classValue] = rnd
	}
	return rnd.Float64()
}
