package codec

import (
	"testing"

	"github.com/Meesho/BharatMLStack/gradflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJobConfig(t *testing.T, weightColumn string) *config.JobConfig {
	t.Helper()
	model := &config.ModelConfig{
		TaskType:         config.TaskRegression,
		DataDelimiter:    ",",
		WeightColumnName: weightColumn,
		Train:            config.TrainConfig{BaggingNum: 1},
		Memory:           config.MemoryConfig{TotalBytes: 1 << 20, Fraction: 0.6},
	}
	columns := []config.ColumnConfig{
		{ColumnNum: 0, ColumnName: "a", ColumnType: config.ColumnTypeNumerical, FinalSelect: true},
		{ColumnNum: 1, ColumnName: "b", ColumnType: config.ColumnTypeNumerical, FinalSelect: true},
		{ColumnNum: 2, ColumnName: "c", ColumnType: config.ColumnTypeCategorical, FinalSelect: true, BinCategory: []string{"x", "y"}},
		{ColumnNum: 3, ColumnName: "target", ColumnFlag: config.FlagTarget},
	}
	cfg, err := config.New(model, columns)
	require.NoError(t, err)
	return cfg
}

func TestParse(t *testing.T) {
	cfg := testJobConfig(t, "")
	lc := NewLineCodec(cfg)

	rec, fingerprint, err := lc.Parse("1.5,2.0,x,1")
	require.NoError(t, err)

	assert.Equal(t, []float32{1.5, 2.0}, rec.Numerical)
	assert.Equal(t, []SparseInput{{ColumnNum: 2, Index: 0}}, rec.Categorical)
	assert.Equal(t, float32(1.0), rec.Label)
	assert.Equal(t, float32(1.0), rec.Weight)
	assert.NotZero(t, fingerprint)
}

func TestParseFingerprintDeterminism(t *testing.T) {
	cfg := testJobConfig(t, "")
	first := NewLineCodec(cfg)
	second := NewLineCodec(cfg)

	_, fp1, err := first.Parse("1.5,2.0,x,1")
	require.NoError(t, err)
	_, fp2, err := second.Parse("1.5,2.0,x,1")
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	// target value never contributes to the fingerprint
	_, fp3, err := second.Parse("1.5,2.0,x,0")
	require.NoError(t, err)
	assert.Equal(t, fp1, fp3)

	// a feature change does
	_, fp4, err := second.Parse("1.5,2.0,y,1")
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp4)
}

func TestParseDefaults(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantDense []float32
		wantCate  int
		wantLabel float32
	}{
		{
			name:      "blank numeric defaults to zero",
			line:      ",2.0,x,1",
			wantDense: []float32{0, 2.0},
			wantCate:  0,
			wantLabel: 1,
		},
		{
			name:      "unparsable numeric defaults to zero",
			line:      "abc,2.0,x,1",
			wantDense: []float32{0, 2.0},
			wantCate:  0,
			wantLabel: 1,
		},
		{
			name:      "nan label defaults to zero",
			line:      "1.0,2.0,x,NaN",
			wantDense: []float32{1.0, 2.0},
			wantCate:  0,
			wantLabel: 0,
		},
		{
			name:      "unknown category maps to missing index",
			line:      "1.0,2.0,z,1",
			wantDense: []float32{1.0, 2.0},
			wantCate:  2,
			wantLabel: 1,
		},
		{
			name:      "empty category maps to missing index",
			line:      "1.0,2.0,,1",
			wantDense: []float32{1.0, 2.0},
			wantCate:  2,
			wantLabel: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := NewLineCodec(testJobConfig(t, ""))
			rec, _, err := lc.Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDense, rec.Numerical)
			assert.Equal(t, tt.wantCate, rec.Categorical[0].Index)
			assert.Equal(t, tt.wantLabel, rec.Label)
		})
	}
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		name         string
		weightColumn string
		line         string
		want         float32
	}{
		{name: "weight parsed", weightColumn: "txn_amount", line: "1.5,2.0,x,1,2.5", want: 2.5},
		{name: "blank weight defaults to one", weightColumn: "txn_amount", line: "1.5,2.0,x,1,", want: 1},
		{name: "invalid weight defaults to one", weightColumn: "txn_amount", line: "1.5,2.0,x,1,abc", want: 1},
		{name: "negative weight clamped to one", weightColumn: "txn_amount", line: "1.5,2.0,x,1,-3", want: 1},
		{name: "no weight column configured", weightColumn: "", line: "1.5,2.0,x,1,2.5", want: 1},
		{name: "no weight field", weightColumn: "txn_amount", line: "1.5,2.0,x,1", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := NewLineCodec(testJobConfig(t, tt.weightColumn))
			rec, _, err := lc.Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Weight)
			assert.GreaterOrEqual(t, rec.Weight, float32(0))
		})
	}
}

func TestParseLengthMismatch(t *testing.T) {
	lc := NewLineCodec(testJobConfig(t, ""))

	// wrong delimiter collapses the whole line into one field
	_, _, err := lc.Parse("1.5|2.0|x|1")
	require.Error(t, err)
	assert.IsType(t, &LengthMismatchError{}, err)
}

func TestParseInputIndex(t *testing.T) {
	lc := NewLineCodec(testJobConfig(t, ""))
	_, _, err := lc.Parse("1.5,2.0,x,1")
	require.NoError(t, err)

	idx := lc.InputIndex()
	assert.Equal(t, 0, idx[0])
	assert.Equal(t, 1, idx[1])
	// categorical slots are indexed independently of numeric ones
	assert.Equal(t, 0, idx[2])
}

func TestLabelClassRules(t *testing.T) {
	assert.True(t, IsPositiveLabel(1))
	assert.True(t, IsPositiveLabel(0.995))
	assert.False(t, IsPositiveLabel(0))
	assert.True(t, IsNegativeLabel(0))
	assert.True(t, IsNegativeLabel(0.005))
	assert.False(t, IsNegativeLabel(1))
}
