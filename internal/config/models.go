package config

// ColumnType mirrors the column metadata produced by the offline stats stage.
type ColumnType string

const (
	ColumnTypeNumerical   ColumnType = "N"
	ColumnTypeCategorical ColumnType = "C"
)

// ColumnFlag marks columns that are excluded from or forced into training.
type ColumnFlag string

const (
	FlagNone        ColumnFlag = ""
	FlagMeta        ColumnFlag = "Meta"
	FlagTarget      ColumnFlag = "Target"
	FlagForceSelect ColumnFlag = "ForceSelect"
	FlagForceRemove ColumnFlag = "ForceRemove"
)

// ColumnStats carries the subset of offline statistics the worker needs to
// judge whether a column is a usable training candidate.
type ColumnStats struct {
	Mean   *float64 `json:"mean"`
	StdDev *float64 `json:"stdDev"`
	KS     *float64 `json:"ks"`
	IV     *float64 `json:"iv"`
}

// ColumnConfig is one entry of the column schema document. Column order in
// the document must match field order in the normalized input lines.
type ColumnConfig struct {
	ColumnNum   int          `json:"columnNum"`
	ColumnName  string       `json:"columnName"`
	ColumnType  ColumnType   `json:"columnType"`
	ColumnFlag  ColumnFlag   `json:"columnFlag"`
	FinalSelect bool         `json:"finalSelect"`
	BinCategory []string     `json:"binCategory"`
	Stats       *ColumnStats `json:"columnStats"`
}

func (c *ColumnConfig) IsMeta() bool {
	return c.ColumnFlag == FlagMeta
}

func (c *ColumnConfig) IsTarget() bool {
	return c.ColumnFlag == FlagTarget
}

func (c *ColumnConfig) IsNumerical() bool {
	return c.ColumnType == ColumnTypeNumerical
}

func (c *ColumnConfig) IsCategorical() bool {
	return c.ColumnType == ColumnTypeCategorical
}

// TaskType selects the training objective family.
type TaskType string

const (
	TaskRegression     TaskType = "Regression"
	TaskClassification TaskType = "Classification"
)

// GraphParams defines which categorical columns feed the embedding pathway
// and how wide each embedding is.
type GraphParams struct {
	EmbedColumnIDs []int `json:"embedColumnIds"`
	EmbedOutputs   int   `json:"embedOutputs"`
}

// TrainConfig is the train section of the model config document.
type TrainConfig struct {
	NumEpochs         int         `json:"numEpochs"`
	BaggingNum        int         `json:"baggingNum"`
	BaggingSampleRate float64     `json:"baggingSampleRate"`
	ValidSetRate      float64     `json:"validSetRate"`
	NumKFold          int         `json:"numKFold"`
	StratifiedSample  bool        `json:"stratifiedSample"`
	FixInitialInput   bool        `json:"fixInitialInput"`
	SampleNegOnly     bool        `json:"sampleNegOnly"`
	UpSampleWeight    float64     `json:"upSampleWeight"`
	OneVsAll          bool        `json:"oneVsAll"`
	Seed              int64       `json:"seed"`
	Params            GraphParams `json:"params"`
}

// MemoryConfig bounds the in-memory record store.
type MemoryConfig struct {
	TotalBytes int64   `json:"totalBytes"`
	Fraction   float64 `json:"fraction"`
}

// ModelConfig is the model config document, supplied by the offline pipeline
// and read-only for the worker.
type ModelConfig struct {
	ModelSetName       string       `json:"modelSetName"`
	TaskType           TaskType     `json:"taskType"`
	DataDelimiter      string       `json:"dataDelimiter"`
	WeightColumnName   string       `json:"weightColumnName"`
	ValidationDataPath string       `json:"validationDataPath"`
	Train              TrainConfig  `json:"train"`
	Memory             MemoryConfig `json:"memory"`
}

func (m *ModelConfig) IsRegression() bool {
	return m.TaskType == TaskRegression
}

func (m *ModelConfig) IsClassification() bool {
	return m.TaskType == TaskClassification
}

// RegressionLike reports whether the job behaves like a binary objective,
// which gates negative down-sampling and positive up-sampling.
func (m *ModelConfig) RegressionLike() bool {
	return m.IsRegression() || (m.IsClassification() && m.Train.OneVsAll)
}

// ManualValidation reports whether validation records come from a
// pre-declared separate data path instead of random splitting.
func (m *ModelConfig) ManualValidation() bool {
	return m.ValidationDataPath != ""
}
