package store

import (
	"github.com/Meesho/BharatMLStack/gradflow/internal/config"
	"github.com/Meesho/BharatMLStack/gradflow/internal/shard"
	"github.com/rs/zerolog/log"
)

// Manual validation paths get a fixed 60/40 training/validation budget split
// because the incoming volume per shard is unknown up front.
const (
	manualTrainFraction      = 0.6
	manualValidationFraction = 0.4
)

// Store holds the two bounded record lists of a worker, one per shard.
type Store struct {
	Training   *BoundedList
	Validation *BoundedList
}

// NewStore sizes both lists from the total memory budget: budget is
// totalBytes scaled by the configured fraction, then split by validation
// rate, or 60/40 under manual validation, or entirely to training when no
// validation is configured. An active k-fold policy reserves 1/k for
// validation since the fold fraction is known exactly.
func NewStore(cfg *config.JobConfig) *Store {
	train := cfg.Model.Train
	budget := float64(cfg.Model.Memory.TotalBytes) * cfg.Model.Memory.Fraction

	var trainBytes, validationBytes int64
	switch {
	case cfg.Model.ManualValidation():
		trainBytes = int64(budget * manualTrainFraction)
		validationBytes = int64(budget * manualValidationFraction)
	case train.NumKFold > 0:
		fold := 1 / float64(train.NumKFold)
		trainBytes = int64(budget * (1 - fold))
		validationBytes = int64(budget * fold)
	case train.ValidSetRate > 0:
		trainBytes = int64(budget * (1 - train.ValidSetRate))
		validationBytes = int64(budget * train.ValidSetRate)
	default:
		trainBytes = int64(budget)
	}

	log.Info().Msgf("Record store budgets: training=%d bytes, validation=%d bytes", trainBytes, validationBytes)
	return &Store{
		Training:   NewBoundedList(trainBytes),
		Validation: NewBoundedList(validationBytes),
	}
}

// List returns the bounded list backing a shard.
func (s *Store) List(sh shard.Shard) *BoundedList {
	if sh == shard.Validation {
		return s.Validation
	}
	return s.Training
}
