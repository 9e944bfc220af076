package worker

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"github.com/Meesho/BharatMLStack/gradflow/internal/codec"
	"github.com/Meesho/BharatMLStack/gradflow/internal/config"
	"github.com/Meesho/BharatMLStack/gradflow/internal/coordinator"
	"github.com/Meesho/BharatMLStack/gradflow/internal/loader"
	"github.com/Meesho/BharatMLStack/gradflow/internal/payload"
	"github.com/Meesho/BharatMLStack/gradflow/internal/round"
	"github.com/Meesho/BharatMLStack/gradflow/internal/sampling"
	"github.com/Meesho/BharatMLStack/gradflow/internal/shard"
	"github.com/Meesho/BharatMLStack/gradflow/internal/store"
	"github.com/rs/zerolog/log"
)

// Worker is one training replica: it loads its shard of records into memory
// once, then per round computes gradient aggregates against the latest
// global snapshot and reports them for master aggregation. Restarting a
// worker replays the load phase and reconstructs the exact same shards.
type Worker struct {
	cfg       *config.JobConfig
	trainerID int

	codec    *codec.LineCodec
	loader   *loader.Loader
	store    *store.Store
	executor *round.Executor

	loaded bool
}

// New builds a worker from the resolved job config. trainerID tags this
// replica within the bagging job and drives the deterministic windows.
func New(cfg *config.JobConfig, trainerID int) (*Worker, error) {
	if trainerID < 0 || trainerID >= cfg.Model.Train.BaggingNum {
		return nil, fmt.Errorf("trainer id %d out of range for bagging num %d", trainerID, cfg.Model.Train.BaggingNum)
	}
	lc := codec.NewLineCodec(cfg)
	st := store.NewStore(cfg)
	seed := cfg.Model.Train.Seed
	neg := sampling.NewNegativeSampler(cfg, trainerID, rand.New(rand.NewSource(seed+int64(trainerID))))
	up := sampling.NewUpSampler(cfg, rand.New(rand.NewSource(seed+int64(trainerID)+1000)))
	assigner := shard.NewAssigner(cfg, trainerID)

	return &Worker{
		cfg:       cfg,
		trainerID: trainerID,
		codec:     lc,
		store:     st,
		loader:    loader.New(lc, neg, up, assigner, st),
	}, nil
}

// Load consumes the training split and, when a manual validation path is
// configured, the validation split. It is the first of the two worker
// barriers: rounds cannot start before it returns.
func (w *Worker) Load(training io.Reader, validation io.Reader) error {
	if err := w.loader.Load(training, false); err != nil {
		return fmt.Errorf("loading training split: %w", err)
	}
	if validation != nil {
		if err := w.loader.Load(validation, true); err != nil {
			return fmt.Errorf("loading validation split: %w", err)
		}
	}
	w.loader.Finish()
	w.loaded = true
	return nil
}

// Run executes the round loop against the coordinator: wait for the round's
// snapshot, compute, publish the result. Round 0 publishes the zero setup
// result without waiting, which lets the master bootstrap its broadcast.
func (w *Worker) Run(ctx context.Context, coord coordinator.Coordinator, graph round.Graph) error {
	if !w.loaded {
		return fmt.Errorf("worker has not loaded its data split")
	}
	executor, err := round.NewExecutor(graph, w.store, w.codec.InputIndex())
	if err != nil {
		return err
	}
	w.executor = executor

	lastRound := w.cfg.Model.Train.NumEpochs
	for r := 0; r <= lastRound; r++ {
		var snapshot round.Snapshot
		if r > 0 {
			data, err := coord.WaitSnapshot(ctx, r)
			if err != nil {
				return fmt.Errorf("round %d snapshot: %w", r, err)
			}
			if snapshot, err = payload.DecodeSnapshot(data); err != nil {
				return fmt.Errorf("round %d snapshot decode: %w", r, err)
			}
		}
		result, err := executor.Compute(snapshot)
		if err != nil {
			return fmt.Errorf("round %d compute: %w", r, err)
		}
		if err := coord.PublishResult(r, w.trainerID, payload.EncodeResult(result)); err != nil {
			return fmt.Errorf("round %d publish: %w", r, err)
		}
		log.Info().Msgf("Round %d done: train=%d err=%f, validation=%d err=%f",
			r, result.TrainCount, result.TrainError, result.ValidationCount, result.ValidationError)
	}
	return nil
}

// Stats summarizes load and store state for the diagnostics endpoint.
func (w *Worker) Stats() map[string]interface{} {
	m := w.loader.Metrics()
	stats := map[string]interface{}{
		"trainerId":          w.trainerID,
		"loaded":             w.loaded,
		"recordsRead":        w.loader.ReadCount(),
		"recordsSampled":     w.loader.SampledCount(),
		"recordsDropped":     w.loader.DroppedCount(),
		"positiveTrain":      m.PositiveTrain,
		"negativeTrain":      m.NegativeTrain,
		"positiveValidation": m.PositiveValidation,
		"negativeValidation": m.NegativeValidation,
		"trainingAccepted":   w.store.Training.Accepted(),
		"trainingOffered":    w.store.Training.Offered(),
		"validationAccepted": w.store.Validation.Accepted(),
		"validationOffered":  w.store.Validation.Offered(),
	}
	if w.executor != nil {
		stats["round"] = w.executor.Round()
	}
	return stats
}

// Store exposes the record store, mainly for tests and diagnostics.
func (w *Worker) Store() *store.Store {
	return w.store
}

// InputIndex exposes the codec's column to slot mapping.
func (w *Worker) InputIndex() map[int]int {
	return w.codec.InputIndex()
}
