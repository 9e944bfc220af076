package round

import (
	"github.com/Meesho/BharatMLStack/gradflow/internal/codec"
)

// Snapshot is the opaque parameter exchange format between worker and
// master: parameter identifiers mapped to their numeric values. Incoming it
// carries global weights, outgoing it carries aggregated gradients.
type Snapshot map[string][]float32

// Graph is the black-box contract of the predictive model. The executor has
// zero knowledge of the concrete architecture; it only drives forward and
// backward passes and swaps weights between rounds.
//
// Backward mutates internal gradient accumulators, so a Graph must only be
// used by the single worker thread between UpdateWeights and Gradients.
type Graph interface {
	// Forward computes the raw logit for one record. embed and wide are
	// the categorical projections of the record, in the column order the
	// graph declared.
	Forward(dense []float32, embed []codec.SparseInput, wide []codec.SparseInput) float32

	// Backward folds one record's error into the gradient accumulators
	// with the given record weight.
	Backward(errorValue, weight float32)

	// UpdateWeights replaces the local weights with the latest global
	// snapshot and clears accumulated gradients for the new round.
	UpdateWeights(snapshot Snapshot) error

	// Gradients returns the gradient contributions accumulated since the
	// last UpdateWeights.
	Gradients() Snapshot

	// EmbedColumnIDs lists the categorical columns routed to the
	// embedding pathway.
	EmbedColumnIDs() []int

	// WideColumnIDs lists the categorical columns routed to the wide
	// linear pathway.
	WideColumnIDs() []int
}
