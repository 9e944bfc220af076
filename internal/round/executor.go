package round

import (
	"fmt"
	"math"
	"time"

	"github.com/Meesho/BharatMLStack/gradflow/internal/codec"
	"github.com/Meesho/BharatMLStack/gradflow/internal/store"
	"github.com/Meesho/BharatMLStack/gradflow/pkg/metrics"
	"github.com/rs/zerolog/log"
)

// sigmoid overflow clamp on extreme negative logits
const expClamp = 1.0e19

// State of the executor between rounds.
type State int

const (
	StateWaitingForSnapshot State = iota
	StateComputing
)

// Result is the per-round output handed to the master: processed counts,
// weighted squared-error sums for both shards and the aggregated gradient
// payload. Constructed fresh every round, never retained.
type Result struct {
	TrainCount      int64
	ValidationCount int64
	TrainError      float64
	ValidationError float64
	Gradients       Snapshot
}

// Executor runs one gradient-computation round over the stored records. It
// owns the graph's weights exclusively between snapshot load and result
// emission; both record loops are strictly sequential because Backward
// mutates shared graph state.
type Executor struct {
	graph Graph
	store *store.Store

	// array slots of the embed/wide columns inside Record.Categorical,
	// resolved once from the load-phase input index and reused every round
	embedSlots []int
	wideSlots  []int

	embedBuf []codec.SparseInput
	wideBuf  []codec.SparseInput

	state State
	round int
}

// NewExecutor wires the graph to the record store. inputIndex is the column
// number to categorical-slot mapping the codec built during load.
func NewExecutor(graph Graph, st *store.Store, inputIndex map[int]int) (*Executor, error) {
	e := &Executor{
		graph: graph,
		store: st,
		state: StateWaitingForSnapshot,
	}
	var err error
	if e.embedSlots, err = resolveSlots(graph.EmbedColumnIDs(), inputIndex); err != nil {
		return nil, fmt.Errorf("embed pathway: %w", err)
	}
	if e.wideSlots, err = resolveSlots(graph.WideColumnIDs(), inputIndex); err != nil {
		return nil, fmt.Errorf("wide pathway: %w", err)
	}
	e.embedBuf = make([]codec.SparseInput, len(e.embedSlots))
	e.wideBuf = make([]codec.SparseInput, len(e.wideSlots))
	return e, nil
}

func resolveSlots(columnIDs []int, inputIndex map[int]int) ([]int, error) {
	slots := make([]int, 0, len(columnIDs))
	for _, id := range columnIDs {
		slot, ok := inputIndex[id]
		if !ok {
			return nil, fmt.Errorf("column %d is not part of the loaded records", id)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Compute runs one round. The very first call is the setup round: no global
// model exists yet, so it returns a zero result without touching weights or
// records, letting the master perform its initial broadcast.
func (e *Executor) Compute(snapshot Snapshot) (*Result, error) {
	if e.round == 0 {
		e.round++
		return &Result{Gradients: Snapshot{}}, nil
	}

	start := time.Now()
	e.state = StateComputing
	defer func() { e.state = StateWaitingForSnapshot }()

	if err := e.graph.UpdateWeights(snapshot); err != nil {
		return nil, err
	}

	res := &Result{
		TrainCount:      int64(e.store.Training.Len()),
		ValidationCount: int64(e.store.Validation.Len()),
	}

	training := e.store.Training.Records()
	for i := range training {
		rec := &training[i]
		errValue := e.predictError(rec)
		res.TrainError += float64(rec.Weight) * float64(errValue) * float64(errValue)
		e.graph.Backward(errValue, rec.Weight)
	}

	// validation is forward-only, no gradient contribution
	validation := e.store.Validation.Records()
	for i := range validation {
		rec := &validation[i]
		errValue := e.predictError(rec)
		res.ValidationError += float64(rec.Weight) * float64(errValue) * float64(errValue)
	}

	res.Gradients = e.graph.Gradients()
	e.round++

	metrics.Timing("gradflow.round.compute.latency", time.Since(start), nil)
	log.Debug().Msgf("Round %d computed: train=%d err=%f, validation=%d err=%f",
		e.round-1, res.TrainCount, res.TrainError, res.ValidationCount, res.ValidationError)
	return res, nil
}

func (e *Executor) predictError(rec *codec.Record) float32 {
	logit := e.graph.Forward(rec.Numerical, e.project(rec, e.embedSlots, e.embedBuf), e.project(rec, e.wideSlots, e.wideBuf))
	return sigmoid(logit) - rec.Label
}

// project selects the categorical inputs of the given slots into buf,
// avoiding a per-record allocation.
func (e *Executor) project(rec *codec.Record, slots []int, buf []codec.SparseInput) []codec.SparseInput {
	for i, slot := range slots {
		buf[i] = rec.Categorical[slot]
	}
	return buf
}

// sigmoid is the numerically clamped logistic transform; the clamp keeps
// exp from overflowing on extreme negative logits.
func sigmoid(logit float32) float32 {
	return float32(1 / (1 + math.Min(expClamp, math.Exp(-float64(logit)))))
}

// State reports the executor's barrier state, for diagnostics.
func (e *Executor) State() State {
	return e.state
}

// Round reports the next round index to be computed.
func (e *Executor) Round() int {
	return e.round
}
