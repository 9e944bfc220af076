package round

import (
	"fmt"

	"github.com/Meesho/BharatMLStack/gradflow/internal/codec"
	"github.com/Meesho/BharatMLStack/gradflow/internal/config"
)

const defaultEmbedOutputs = 16

// Parameter identifier prefixes inside a Snapshot.
const (
	paramBias   = "bias"
	paramDense  = "dense"
	paramWide   = "wide"
	paramEmbed  = "embed"
	paramEmbedO = "embed_out"
)

// WideAndDeep is a linear wide-and-deep graph: a dense linear part over the
// numeric vector, a wide sparse-linear part over one categorical subset and
// an embedding part over another. It satisfies the Graph contract so the
// executor never sees its internals.
type WideAndDeep struct {
	numInputs int
	embedSize int
	embedIDs  []int
	wideIDs   []int

	// category count per column, including the reserved missing bin
	categoryCount map[int]int

	params map[string][]float32
	grads  map[string][]float32

	// activations of the last forward pass, consumed by Backward
	lastDense []float32
	lastEmbed []codec.SparseInput
	lastWide  []codec.SparseInput
}

// NewWideAndDeep builds the graph from the resolved job config: embedding
// columns come from the train params, the wide pathway consumes every
// selected categorical column.
func NewWideAndDeep(cfg *config.JobConfig) (*WideAndDeep, error) {
	embedSize := cfg.Model.Train.Params.EmbedOutputs
	if embedSize <= 0 {
		embedSize = defaultEmbedOutputs
	}
	g := &WideAndDeep{
		numInputs:     cfg.NumericInputCount(),
		embedSize:     embedSize,
		embedIDs:      append([]int(nil), cfg.Model.Train.Params.EmbedColumnIDs...),
		wideIDs:       cfg.SelectedCategoricalIDs(),
		categoryCount: make(map[int]int),
		params:        make(map[string][]float32),
		grads:         make(map[string][]float32),
	}
	g.params[paramBias] = make([]float32, 1)
	g.params[paramDense] = make([]float32, g.numInputs)
	for _, id := range g.wideIDs {
		g.categoryCount[id] = cfg.CategoryCount(id)
		g.params[wideKey(id)] = make([]float32, g.categoryCount[id])
	}
	for _, id := range g.embedIDs {
		count := cfg.CategoryCount(id)
		if count <= 1 {
			return nil, fmt.Errorf("embed column %d has no categories", id)
		}
		g.categoryCount[id] = count
		g.params[embedKey(id)] = make([]float32, count*embedSize)
		g.params[embedOutKey(id)] = make([]float32, embedSize)
	}
	for name, vals := range g.params {
		g.grads[name] = make([]float32, len(vals))
	}
	return g, nil
}

func wideKey(columnNum int) string {
	return fmt.Sprintf("%s:%d", paramWide, columnNum)
}

func embedKey(columnNum int) string {
	return fmt.Sprintf("%s:%d", paramEmbed, columnNum)
}

func embedOutKey(columnNum int) string {
	return fmt.Sprintf("%s:%d", paramEmbedO, columnNum)
}

func (g *WideAndDeep) Forward(dense []float32, embed []codec.SparseInput, wide []codec.SparseInput) float32 {
	logit := g.params[paramBias][0]

	denseW := g.params[paramDense]
	for i, v := range dense {
		logit += denseW[i] * v
	}

	for _, in := range wide {
		logit += g.params[wideKey(in.ColumnNum)][in.Index]
	}

	for _, in := range embed {
		row := g.embedRow(in.ColumnNum, in.Index)
		out := g.params[embedOutKey(in.ColumnNum)]
		for d := 0; d < g.embedSize; d++ {
			logit += row[d] * out[d]
		}
	}

	g.lastDense = dense
	g.lastEmbed = embed
	g.lastWide = wide
	return logit
}

func (g *WideAndDeep) embedRow(columnNum, index int) []float32 {
	table := g.params[embedKey(columnNum)]
	return table[index*g.embedSize : (index+1)*g.embedSize]
}

func (g *WideAndDeep) gradEmbedRow(columnNum, index int) []float32 {
	table := g.grads[embedKey(columnNum)]
	return table[index*g.embedSize : (index+1)*g.embedSize]
}

// Backward accumulates weight * error * dLogit/dParam for every parameter
// touched by the last forward pass.
func (g *WideAndDeep) Backward(errorValue, weight float32) {
	scale := errorValue * weight

	g.grads[paramBias][0] += scale

	gradDense := g.grads[paramDense]
	for i, v := range g.lastDense {
		gradDense[i] += scale * v
	}

	for _, in := range g.lastWide {
		g.grads[wideKey(in.ColumnNum)][in.Index] += scale
	}

	for _, in := range g.lastEmbed {
		row := g.embedRow(in.ColumnNum, in.Index)
		gradRow := g.gradEmbedRow(in.ColumnNum, in.Index)
		out := g.params[embedOutKey(in.ColumnNum)]
		gradOut := g.grads[embedOutKey(in.ColumnNum)]
		for d := 0; d < g.embedSize; d++ {
			gradRow[d] += scale * out[d]
			gradOut[d] += scale * row[d]
		}
	}
}

// UpdateWeights copies the global snapshot over the local parameters and
// zeroes the gradient accumulators for the new round. Unknown identifiers
// and length mismatches are configuration drift between master and worker
// and fail hard.
func (g *WideAndDeep) UpdateWeights(snapshot Snapshot) error {
	for name, vals := range snapshot {
		local, ok := g.params[name]
		if !ok {
			return fmt.Errorf("unknown parameter %q in snapshot", name)
		}
		if len(local) != len(vals) {
			return fmt.Errorf("parameter %q length mismatch: local %d, snapshot %d", name, len(local), len(vals))
		}
		copy(local, vals)
	}
	for _, grad := range g.grads {
		for i := range grad {
			grad[i] = 0
		}
	}
	return nil
}

// Gradients snapshots the accumulated gradient contributions. The returned
// slices are copies; the accumulators keep their values until the next
// UpdateWeights.
func (g *WideAndDeep) Gradients() Snapshot {
	out := make(Snapshot, len(g.grads))
	for name, vals := range g.grads {
		out[name] = append([]float32(nil), vals...)
	}
	return out
}

func (g *WideAndDeep) EmbedColumnIDs() []int {
	return g.embedIDs
}

func (g *WideAndDeep) WideColumnIDs() []int {
	return g.wideIDs
}
