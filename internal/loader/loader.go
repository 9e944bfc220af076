package loader

import (
	"bufio"
	"io"

	"github.com/Meesho/BharatMLStack/gradflow/internal/codec"
	"github.com/Meesho/BharatMLStack/gradflow/internal/sampling"
	"github.com/Meesho/BharatMLStack/gradflow/internal/shard"
	"github.com/Meesho/BharatMLStack/gradflow/internal/store"
	"github.com/Meesho/BharatMLStack/gradflow/pkg/metrics"
	"github.com/rs/zerolog/log"
)

const (
	progressInterval = 5000
	maxLineBytes     = 4 * 1024 * 1024
)

// Loader drives the load phase: lines from the input split flow through the
// codec, the sampling filters and the shard assigner into the bounded store.
// Loading happens once per job; a restarted worker replays the same split
// and reconstructs the exact same shards because every decision is keyed on
// the record fingerprint or a seeded generator.
type Loader struct {
	codec    *codec.LineCodec
	negative *sampling.NegativeSampler
	up       *sampling.UpSampler
	assigner *shard.Assigner
	store    *store.Store
	metrics  *shard.Metrics

	readCount    int64
	sampledCount int64
	droppedCount int64
}

func New(lc *codec.LineCodec, neg *sampling.NegativeSampler, up *sampling.UpSampler,
	assigner *shard.Assigner, st *store.Store) *Loader {
	return &Loader{
		codec:    lc,
		negative: neg,
		up:       up,
		assigner: assigner,
		store:    st,
		metrics:  &shard.Metrics{},
	}
}

// Load consumes one newline-delimited source until EOF. manualValidation
// marks every record of the source as pre-declared validation data; it only
// takes effect under the manual shard policy.
func (ld *Loader) Load(r io.Reader, manualValidation bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ld.process(scanner.Text(), manualValidation); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (ld *Loader) process(line string, manualValidation bool) error {
	ld.readCount++
	if ld.readCount%progressInterval == 0 {
		log.Info().Msgf("Read %d records.", ld.readCount)
	}

	rec, fingerprint, err := ld.codec.Parse(line)
	if err != nil {
		// almost always a wrong delimiter; abort instead of skipping
		return err
	}

	if ld.negative.Drop(fingerprint, rec.Label) {
		ld.droppedCount++
		return nil
	}
	ld.sampledCount++

	rec.Weight = ld.up.Boost(rec.Weight, rec.Label)

	d := ld.assigner.Classify(fingerprint, rec.Label, manualValidation)
	ld.metrics.Apply(d)
	ld.store.List(d.Shard).Append(rec)
	return nil
}

// Finish logs and publishes the end-of-load counters.
func (ld *Loader) Finish() {
	log.Info().Msgf("Load complete: read=%d, sampled=%d, dropped=%d, training=%d/%d accepted, validation=%d/%d accepted",
		ld.readCount, ld.sampledCount, ld.droppedCount,
		ld.store.Training.Accepted(), ld.store.Training.Offered(),
		ld.store.Validation.Accepted(), ld.store.Validation.Offered())
	log.Info().Msgf("Class balance: train +%d/-%d, validation +%d/-%d",
		ld.metrics.PositiveTrain, ld.metrics.NegativeTrain,
		ld.metrics.PositiveValidation, ld.metrics.NegativeValidation)

	metrics.Count("gradflow.load.records.read", ld.readCount, nil)
	metrics.Count("gradflow.load.records.sampled", ld.sampledCount, nil)
	metrics.Count("gradflow.load.records.dropped", ld.droppedCount, nil)
	metrics.Gauge("gradflow.load.store.training.bytes", float64(ld.store.Training.UsedBytes()), nil)
	metrics.Gauge("gradflow.load.store.validation.bytes", float64(ld.store.Validation.UsedBytes()), nil)
}

// Metrics exposes the shard counters, read-only after the load phase.
func (ld *Loader) Metrics() *shard.Metrics {
	return ld.metrics
}

// ReadCount returns how many lines were consumed.
func (ld *Loader) ReadCount() int64 {
	return ld.readCount
}

// SampledCount returns how many records survived down-sampling.
func (ld *Loader) SampledCount() int64 {
	return ld.sampledCount
}

// DroppedCount returns how many records down-sampling discarded.
func (ld *Loader) DroppedCount() int64 {
	return ld.droppedCount
}
