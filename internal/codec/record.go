package codec

// SparseInput is one categorical feature of a record: the owning column and
// the resolved category bin index.
type SparseInput struct {
	ColumnNum int
	Index     int
}

// Record is one normalized training record, immutable once constructed. The
// dense vector length always equals the number of selected numeric columns.
type Record struct {
	Numerical   []float32
	Categorical []SparseInput
	Label       float32
	Weight      float32
}

const (
	recordOverheadBytes = 24
	sparseInputBytes    = 16
)

// EstimatedSize returns the approximate in-memory footprint of the record,
// used by the bounded store to enforce its byte budget.
func (r *Record) EstimatedSize() int64 {
	return int64(recordOverheadBytes + 4*len(r.Numerical) + sparseInputBytes*len(r.Categorical))
}

// IsPositiveLabel reports whether a label belongs to the positive class.
// The rule is int(label+0.01) == 1, applied uniformly at every call site so
// sampling, shard bookkeeping and up-sampling never disagree.
func IsPositiveLabel(label float32) bool {
	return int(label+0.01) == 1
}

// IsNegativeLabel reports whether a label belongs to the negative class
// under the same rounding rule as IsPositiveLabel.
func IsNegativeLabel(label float32) bool {
	return int(label+0.01) == 0
}
