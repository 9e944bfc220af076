package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Values inside one category bin may be grouped, e.g. "IN^IND^INDIA" maps
// three raw values onto the same bin index.
const categoryGroupDelimiter = "^"

// JobConfig is the fully resolved, immutable configuration of one worker
// job: the model and column documents plus everything derived from them.
// Policies resolved here never change for the lifetime of the job.
type JobConfig struct {
	Model   *ModelConfig
	Columns []ColumnConfig

	// categoryIndex maps (columnNum, raw value) to the category bin index.
	categoryIndex map[int]map[string]int

	numericInputCount     int
	categoricalInputCount int
	afterVarSelect        bool
	hasForcedCandidates   bool
}

// Load reads and resolves the model and column config documents.
func Load(modelPath, columnPath string) (*JobConfig, error) {
	model := &ModelConfig{}
	if err := readJSON(modelPath, model); err != nil {
		return nil, fmt.Errorf("model config %s: %w", modelPath, err)
	}
	var columns []ColumnConfig
	if err := readJSON(columnPath, &columns); err != nil {
		return nil, fmt.Errorf("column config %s: %w", columnPath, err)
	}
	return New(model, columns)
}

// New resolves a JobConfig from already unmarshalled documents.
func New(model *ModelConfig, columns []ColumnConfig) (*JobConfig, error) {
	if model.DataDelimiter == "" {
		return nil, fmt.Errorf("data delimiter is not set")
	}
	if model.Train.BaggingNum <= 0 {
		model.Train.BaggingNum = 1
	}
	jc := &JobConfig{
		Model:   model,
		Columns: columns,
	}
	jc.afterVarSelect = anyFinalSelect(columns)
	jc.hasForcedCandidates = anyForceSelect(columns)
	jc.buildCategoryIndex()
	jc.countInputs()
	if jc.numericInputCount == 0 && jc.categoricalInputCount == 0 {
		return nil, fmt.Errorf("no columns selected for training")
	}
	log.Info().Msgf("Job config resolved: %d numeric inputs, %d categorical inputs, afterVarSelect=%v",
		jc.numericInputCount, jc.categoricalInputCount, jc.afterVarSelect)
	return jc, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func anyFinalSelect(columns []ColumnConfig) bool {
	for i := range columns {
		c := &columns[i]
		if c.FinalSelect && !c.IsMeta() && !c.IsTarget() {
			return true
		}
	}
	return false
}

func anyForceSelect(columns []ColumnConfig) bool {
	for i := range columns {
		if columns[i].ColumnFlag == FlagForceSelect {
			return true
		}
	}
	return false
}

func (jc *JobConfig) buildCategoryIndex() {
	jc.categoryIndex = make(map[int]map[string]int)
	for i := range jc.Columns {
		c := &jc.Columns[i]
		if !c.IsCategorical() || c.BinCategory == nil {
			continue
		}
		idx := make(map[string]int, len(c.BinCategory))
		for binIndex, group := range c.BinCategory {
			for _, val := range strings.Split(group, categoryGroupDelimiter) {
				idx[val] = binIndex
			}
		}
		jc.categoryIndex[c.ColumnNum] = idx
	}
}

func (jc *JobConfig) countInputs() {
	for i := range jc.Columns {
		c := &jc.Columns[i]
		if !jc.ValidColumn(c) {
			continue
		}
		if c.IsNumerical() {
			jc.numericInputCount++
		} else if c.IsCategorical() {
			jc.categoricalInputCount++
		}
	}
}

// ValidColumn reports whether a column contributes features to training.
// After variable selection only final-selected columns count; before it,
// good candidates count.
func (jc *JobConfig) ValidColumn(c *ColumnConfig) bool {
	if c == nil || c.IsMeta() || c.IsTarget() {
		return false
	}
	if jc.afterVarSelect {
		return c.FinalSelect
	}
	return jc.IsGoodCandidate(c)
}

// IsGoodCandidate applies the pre-selection heuristic: a non-excluded column
// with usable offline stats. When any column is force-selected the candidate
// set narrows to the forced ones.
func (jc *JobConfig) IsGoodCandidate(c *ColumnConfig) bool {
	if c.IsMeta() || c.IsTarget() || c.ColumnFlag == FlagForceRemove {
		return false
	}
	if jc.hasForcedCandidates {
		return c.ColumnFlag == FlagForceSelect
	}
	if c.IsCategorical() {
		return len(c.BinCategory) > 0
	}
	return c.Stats != nil && c.Stats.Mean != nil && c.Stats.StdDev != nil
}

// CategoryIndex resolves a raw categorical value to its bin index. Unknown
// or empty values map to the bin count, one past the last valid index.
func (jc *JobConfig) CategoryIndex(columnNum int, raw string) int {
	c := jc.Column(columnNum)
	if c == nil {
		return 0
	}
	missing := len(c.BinCategory)
	if raw == "" {
		return missing
	}
	idx, ok := jc.categoryIndex[columnNum]
	if !ok {
		return missing
	}
	binIndex, ok := idx[raw]
	if !ok {
		return missing
	}
	return binIndex
}

// Column returns the config for a column number, nil when absent.
func (jc *JobConfig) Column(columnNum int) *ColumnConfig {
	for i := range jc.Columns {
		if jc.Columns[i].ColumnNum == columnNum {
			return &jc.Columns[i]
		}
	}
	return nil
}

// CategoryCount returns the number of category bins of a column, including
// the reserved missing bin.
func (jc *JobConfig) CategoryCount(columnNum int) int {
	c := jc.Column(columnNum)
	if c == nil {
		return 1
	}
	return len(c.BinCategory) + 1
}

func (jc *JobConfig) NumericInputCount() int {
	return jc.numericInputCount
}

func (jc *JobConfig) CategoricalInputCount() int {
	return jc.categoricalInputCount
}

func (jc *JobConfig) AfterVarSelect() bool {
	return jc.afterVarSelect
}

// SelectedCategoricalIDs lists the column numbers of all selected
// categorical columns in schema order. The wide pathway consumes all of
// them unless the graph params narrow it down.
func (jc *JobConfig) SelectedCategoricalIDs() []int {
	ids := make([]int, 0, jc.categoricalInputCount)
	for i := range jc.Columns {
		c := &jc.Columns[i]
		if jc.ValidColumn(c) && c.IsCategorical() {
			ids = append(ids, c.ColumnNum)
		}
	}
	return ids
}
