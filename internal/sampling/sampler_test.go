package sampling

import (
	"math/rand"
	"testing"

	"github.com/Meesho/BharatMLStack/gradflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func negOnlyConfig(fixInitialInput bool, bagRate float64, baggingNum int) *config.JobConfig {
	model := &config.ModelConfig{
		TaskType:      config.TaskRegression,
		DataDelimiter: ",",
		Train: config.TrainConfig{
			BaggingNum:        baggingNum,
			BaggingSampleRate: bagRate,
			SampleNegOnly:     true,
			FixInitialInput:   fixInitialInput,
		},
	}
	columns := []config.ColumnConfig{
		{ColumnNum: 0, ColumnType: config.ColumnTypeNumerical, FinalSelect: true},
		{ColumnNum: 1, ColumnFlag: config.FlagTarget},
	}
	cfg, err := config.New(model, columns)
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestWindowNonOverlap(t *testing.T) {
	// different trainers of one bagging job must claim disjoint slices
	const baggingNum = 4
	const rate = 0.2
	for i := 0; i < baggingNum; i++ {
		for j := i + 1; j < baggingNum; j++ {
			si, ei := Window(baggingNum, i, rate)
			sj, ej := Window(baggingNum, j, rate)
			for h := uint64(0); h < 100; h++ {
				inBoth := InWindow(h, si, ei) && InWindow(h, sj, ej)
				assert.False(t, inBoth, "hash %d claimed by trainers %d and %d", h, i, j)
			}
		}
	}
}

func TestInWindowWrapsPastHundred(t *testing.T) {
	// start 80, rate 0.4 -> window [80, 120) wraps to [80,100) + [0,20)
	start, end := 80, 120
	assert.True(t, InWindow(85, start, end))
	assert.True(t, InWindow(5, start, end))
	assert.False(t, InWindow(25, start, end))
	assert.False(t, InWindow(79, start, end))
}

func TestNegativeSamplerFixedWindow(t *testing.T) {
	cfg := negOnlyConfig(true, 0.8, 1)
	s := NewNegativeSampler(cfg, 0, rand.New(rand.NewSource(1)))

	// trainer 0 with rate 0.8 drops negatives with fingerprint%100 in [0,20)
	assert.True(t, s.Drop(10, 0))
	assert.False(t, s.Drop(50, 0))
	// positives are never dropped
	assert.False(t, s.Drop(10, 1))
}

func TestNegativeSamplerFixedWindowDeterminism(t *testing.T) {
	cfg := negOnlyConfig(true, 0.7, 2)
	first := NewNegativeSampler(cfg, 1, rand.New(rand.NewSource(1)))
	second := NewNegativeSampler(cfg, 1, rand.New(rand.NewSource(99)))

	// fixed-input mode ignores the generator entirely
	for h := uint64(0); h < 200; h++ {
		assert.Equal(t, first.Drop(h, 0), second.Drop(h, 0), "fingerprint %d", h)
	}
}

func TestNegativeSamplerRandomMode(t *testing.T) {
	cfg := negOnlyConfig(false, 0.5, 1)
	s := NewNegativeSampler(cfg, 0, rand.New(rand.NewSource(42)))

	dropped := 0
	const n = 10000
	for i := 0; i < n; i++ {
		if s.Drop(uint64(i), 0) {
			dropped++
		}
	}
	// about 1-bagRate of negatives get dropped
	assert.InDelta(t, n/2, dropped, n/20)
}

func TestNegativeSamplerDisabledForClassification(t *testing.T) {
	cfg := negOnlyConfig(true, 0.8, 1)
	cfg.Model.TaskType = config.TaskClassification
	s := NewNegativeSampler(cfg, 0, rand.New(rand.NewSource(1)))
	assert.False(t, s.Drop(10, 0))
}

func TestUpSamplerWeightFloor(t *testing.T) {
	model := &config.ModelConfig{
		TaskType:      config.TaskRegression,
		DataDelimiter: ",",
		Train: config.TrainConfig{
			BaggingNum:     1,
			UpSampleWeight: 3,
		},
	}
	columns := []config.ColumnConfig{
		{ColumnNum: 0, ColumnType: config.ColumnTypeNumerical, FinalSelect: true},
		{ColumnNum: 1, ColumnFlag: config.FlagTarget},
	}
	cfg, err := config.New(model, columns)
	require.NoError(t, err)
	u := NewUpSampler(cfg, rand.New(rand.NewSource(7)))

	for i := 0; i < 1000; i++ {
		boosted := u.Boost(2.0, 1)
		// multiplier is draw+1, so never below the original weight
		assert.GreaterOrEqual(t, boosted, float32(2.0))
		assert.NotZero(t, boosted)
	}
	// negatives keep their weight
	assert.Equal(t, float32(2.0), u.Boost(2.0, 0))
}

func TestUpSamplerDisabledAtUnitWeight(t *testing.T) {
	model := &config.ModelConfig{
		TaskType:      config.TaskRegression,
		DataDelimiter: ",",
		Train:         config.TrainConfig{BaggingNum: 1, UpSampleWeight: 1},
	}
	columns := []config.ColumnConfig{
		{ColumnNum: 0, ColumnType: config.ColumnTypeNumerical, FinalSelect: true},
		{ColumnNum: 1, ColumnFlag: config.FlagTarget},
	}
	cfg, err := config.New(model, columns)
	require.NoError(t, err)
	u := NewUpSampler(cfg, rand.New(rand.NewSource(7)))
	assert.Equal(t, float32(5), u.Boost(5, 1))
}

func TestPoissonMeanZero(t *testing.T) {
	p := NewPoisson(0, rand.New(rand.NewSource(3)))
	for i := 0; i < 100; i++ {
		assert.Equal(t, 0, p.Sample())
	}
}

func TestPoissonSampleMean(t *testing.T) {
	p := NewPoisson(2, rand.New(rand.NewSource(5)))
	sum := 0
	const n = 20000
	for i := 0; i < n; i++ {
		sum += p.Sample()
	}
	assert.InDelta(t, 2.0, float64(sum)/n, 0.1)
}
