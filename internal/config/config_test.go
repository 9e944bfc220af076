package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 {
	return &v
}

func TestCategoryIndex(t *testing.T) {
	model := &ModelConfig{
		TaskType:      TaskRegression,
		DataDelimiter: "|",
	}
	columns := []ColumnConfig{
		{ColumnNum: 0, ColumnType: ColumnTypeCategorical, FinalSelect: true,
			BinCategory: []string{"IN^IND", "US", "UK"}},
		{ColumnNum: 1, ColumnFlag: FlagTarget},
	}
	cfg, err := New(model, columns)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "first group member", raw: "IN", want: 0},
		{name: "second group member", raw: "IND", want: 0},
		{name: "plain bin", raw: "UK", want: 2},
		{name: "unknown maps past last bin", raw: "FR", want: 3},
		{name: "empty maps past last bin", raw: "", want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.CategoryIndex(0, tt.raw))
		})
	}
	assert.Equal(t, 4, cfg.CategoryCount(0))
}

func TestValidColumnAfterVarSelect(t *testing.T) {
	model := &ModelConfig{TaskType: TaskRegression, DataDelimiter: ","}
	columns := []ColumnConfig{
		{ColumnNum: 0, ColumnType: ColumnTypeNumerical, FinalSelect: true},
		{ColumnNum: 1, ColumnType: ColumnTypeNumerical,
			Stats: &ColumnStats{Mean: float64Ptr(0.5), StdDev: float64Ptr(1.0)}},
		{ColumnNum: 2, ColumnFlag: FlagMeta, ColumnType: ColumnTypeNumerical, FinalSelect: true},
		{ColumnNum: 3, ColumnFlag: FlagTarget},
	}
	cfg, err := New(model, columns)
	require.NoError(t, err)

	assert.True(t, cfg.AfterVarSelect())
	assert.True(t, cfg.ValidColumn(&cfg.Columns[0]))
	// not final-selected, excluded after variable selection
	assert.False(t, cfg.ValidColumn(&cfg.Columns[1]))
	// meta never contributes, even when marked final select
	assert.False(t, cfg.ValidColumn(&cfg.Columns[2]))
	assert.False(t, cfg.ValidColumn(&cfg.Columns[3]))
	assert.Equal(t, 1, cfg.NumericInputCount())
}

func TestValidColumnBeforeVarSelect(t *testing.T) {
	model := &ModelConfig{TaskType: TaskRegression, DataDelimiter: ","}
	columns := []ColumnConfig{
		{ColumnNum: 0, ColumnType: ColumnTypeNumerical,
			Stats: &ColumnStats{Mean: float64Ptr(0.5), StdDev: float64Ptr(1.0)}},
		{ColumnNum: 1, ColumnType: ColumnTypeNumerical},
		{ColumnNum: 2, ColumnType: ColumnTypeCategorical, BinCategory: []string{"x"}},
		{ColumnNum: 3, ColumnFlag: FlagTarget},
	}
	cfg, err := New(model, columns)
	require.NoError(t, err)

	assert.False(t, cfg.AfterVarSelect())
	// good candidate: numeric with stats
	assert.True(t, cfg.ValidColumn(&cfg.Columns[0]))
	// numeric without stats is not a good candidate
	assert.False(t, cfg.ValidColumn(&cfg.Columns[1]))
	// categorical with bins is a good candidate
	assert.True(t, cfg.ValidColumn(&cfg.Columns[2]))
	assert.Equal(t, []int{2}, cfg.SelectedCategoricalIDs())
}

func TestNewRejectsEmptySelection(t *testing.T) {
	model := &ModelConfig{TaskType: TaskRegression, DataDelimiter: ","}
	columns := []ColumnConfig{
		{ColumnNum: 0, ColumnFlag: FlagMeta},
		{ColumnNum: 1, ColumnFlag: FlagTarget},
	}
	_, err := New(model, columns)
	assert.Error(t, err)
}

func TestRegressionLike(t *testing.T) {
	tests := []struct {
		name  string
		model ModelConfig
		want  bool
	}{
		{name: "regression", model: ModelConfig{TaskType: TaskRegression}, want: true},
		{name: "plain classification", model: ModelConfig{TaskType: TaskClassification}, want: false},
		{name: "one vs all classification",
			model: ModelConfig{TaskType: TaskClassification, Train: TrainConfig{OneVsAll: true}}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.model.RegressionLike())
		})
	}
}
