package codec

import (
	"math"
	"strconv"
	"strings"

	"github.com/Meesho/BharatMLStack/gradflow/internal/config"
	"github.com/rs/zerolog/log"
)

// LineCodec parses one delimited input line into a Record plus its shard
// fingerprint. A codec is built once per job and is not safe for concurrent
// use; the worker is single threaded by design.
type LineCodec struct {
	cfg       *config.JobConfig
	delimiter string

	// inputIndex maps a column number to its slot inside the record's
	// numerical or categorical array, filled on first sight and reused for
	// every following record.
	inputIndex map[int]int

	parsed int64
}

func NewLineCodec(cfg *config.JobConfig) *LineCodec {
	return &LineCodec{
		cfg:        cfg,
		delimiter:  cfg.Model.DataDelimiter,
		inputIndex: make(map[int]int),
	}
}

// Parse converts a line into a Record and its fingerprint. The fingerprint
// folds the raw bytes of every contributing column with h = h*31 + b, so
// identical lines produce identical fingerprints on any worker in any round.
// A numeric-count mismatch returns a LengthMismatchError, which is fatal.
func (lc *LineCodec) Parse(line string) (Record, uint64, error) {
	lc.parsed++

	numerical := make([]float32, lc.cfg.NumericInputCount())
	categorical := make([]SparseInput, lc.cfg.CategoricalInputCount())
	var label float32
	var weight float32 = 1
	var fingerprint uint64
	numericIndex, cateIndex := 0, 0

	fields := strings.Split(line, lc.delimiter)
	for index, field := range fields {
		if index == len(lc.cfg.Columns) {
			// the last field past the schema is the optional record weight
			weight = lc.weightValue(field)
			break
		}
		col := &lc.cfg.Columns[index]
		if col.IsTarget() {
			label = floatValue(field)
			continue
		}
		if !lc.cfg.ValidColumn(col) {
			continue
		}
		if col.IsNumerical() {
			if numericIndex < len(numerical) {
				numerical[numericIndex] = floatValue(field)
			}
			lc.indexColumn(col.ColumnNum, numericIndex)
			numericIndex++
		} else if col.IsCategorical() {
			if cateIndex < len(categorical) {
				categorical[cateIndex] = SparseInput{
					ColumnNum: col.ColumnNum,
					Index:     lc.cfg.CategoryIndex(col.ColumnNum, field),
				}
			}
			lc.indexColumn(col.ColumnNum, cateIndex)
			cateIndex++
		}
		for i := 0; i < len(field); i++ {
			fingerprint = fingerprint*31 + uint64(field[i])
		}
	}

	if numericIndex != len(numerical) {
		return Record{}, 0, &LengthMismatchError{
			Expected:  len(numerical),
			Parsed:    numericIndex,
			Delimiter: lc.delimiter,
		}
	}

	rec := Record{
		Numerical:   numerical,
		Categorical: categorical,
		Label:       label,
		Weight:      weight,
	}
	return rec, fingerprint, nil
}

// InputIndex returns the column number to array slot mapping built during
// the load phase.
func (lc *LineCodec) InputIndex() map[int]int {
	return lc.inputIndex
}

// Parsed returns the number of lines handed to Parse so far.
func (lc *LineCodec) Parsed() int64 {
	return lc.parsed
}

func (lc *LineCodec) indexColumn(columnNum, slot int) {
	if _, ok := lc.inputIndex[columnNum]; !ok {
		lc.inputIndex[columnNum] = slot
	}
}

// weightValue parses the trailing weight field. Blank resolves to 1;
// unparsable or negative values resolve to 1 with a warning, since weights
// must never be negative.
func (lc *LineCodec) weightValue(field string) float32 {
	if lc.cfg.Model.WeightColumnName == "" || field == "" {
		return 1
	}
	v, err := strconv.ParseFloat(field, 32)
	if err != nil || math.IsNaN(v) {
		log.Warn().Msgf("Record %d weight %q is not a number, set it to 1", lc.parsed, field)
		return 1
	}
	if v < 0 {
		log.Warn().Msgf("Record %d weight %f is less than 0 and invalid, set it to 1", lc.parsed, v)
		return 1
	}
	return float32(v)
}

// floatValue parses a numeric feature or label field. Blank, unparsable and
// NaN all resolve to 0 so a bad field never aborts the record.
func floatValue(field string) float32 {
	if field == "" {
		return 0
	}
	v, err := strconv.ParseFloat(field, 32)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return float32(v)
}
