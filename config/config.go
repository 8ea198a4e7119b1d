package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/deepctr/core"
	"github.com/rushteam/deepctr/model"
)

// ModelConfig 是模型的声明式配置：特征列、行为配对与结构超参数。
//
// 示例（YAML）：
//
//	model:
//	  type: din
//	  activation: dice
//	  attention_hidden: [64, 32]
//	  dnn_hidden: [128, 64]
//	  seed: 42
//	columns:
//	  - { name: user_id, type: sparse, vocabulary_size: 1000, embedding_dim: 8 }
//	  - { name: item_id, type: sparse, vocabulary_size: 5000, embedding_dim: 8 }
//	  - { name: hist_item_id, type: varlen_sparse, vocabulary_size: 5000, embedding_dim: 8, maxlen: 50 }
//	  - { name: hour, type: dense, dimension: 1 }
//	behavior:
//	  - { candidate: item_id, sequence: hist_item_id }
type ModelConfig struct {
	Model struct {
		Type            string `yaml:"type"` // din / dnn
		Activation      string `yaml:"activation"`
		AttentionHidden []int  `yaml:"attention_hidden"`
		DNNHidden       []int  `yaml:"dnn_hidden"`
		Seed            int64  `yaml:"seed"`
	} `yaml:"model"`

	Columns  []ColumnConfig `yaml:"columns"`
	Behavior []BehaviorPair `yaml:"behavior"`
}

// ColumnConfig 是单个特征列的配置。
type ColumnConfig struct {
	Name           string `yaml:"name"`
	Type           string `yaml:"type"` // sparse / dense / varlen_sparse
	VocabularySize int    `yaml:"vocabulary_size"`
	EmbeddingDim   int    `yaml:"embedding_dim"`
	Dimension      int    `yaml:"dimension"`
	MaxLen         int    `yaml:"maxlen"`
}

// BehaviorPair 是一个行为通道：候选特征与配对的序列特征。
type BehaviorPair struct {
	Candidate string `yaml:"candidate"`
	Sequence  string `yaml:"sequence"`
}

// LoadModelConfig 从 YAML 文件加载模型配置。
func LoadModelConfig(path string) (*ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseModelConfig(data)
}

// ParseModelConfig 解析 YAML 字节。
func ParseModelConfig(data []byte) (*ModelConfig, error) {
	var cfg ModelConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// FeatureColumns 把列配置转换成类型化的特征列并整体校验。
func (c *ModelConfig) FeatureColumns() ([]core.FeatureColumn, error) {
	columns := make([]core.FeatureColumn, 0, len(c.Columns))
	for _, cc := range c.Columns {
		switch cc.Type {
		case "sparse":
			columns = append(columns, core.SparseFeat{
				Name:           cc.Name,
				VocabularySize: cc.VocabularySize,
				EmbeddingDim:   cc.EmbeddingDim,
			})
		case "dense":
			columns = append(columns, core.DenseFeat{
				Name:      cc.Name,
				Dimension: cc.Dimension,
			})
		case "varlen_sparse":
			columns = append(columns, core.VarLenSparseFeat{
				Name:           cc.Name,
				VocabularySize: cc.VocabularySize,
				EmbeddingDim:   cc.EmbeddingDim,
				MaxLen:         cc.MaxLen,
			})
		default:
			return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeSchemaMismatch,
				fmt.Sprintf("column %q: unknown type %q (want sparse/dense/varlen_sparse)", cc.Name, cc.Type))
		}
	}
	if err := core.ValidateColumns(columns); err != nil {
		return nil, err
	}
	return columns, nil
}

// BuildDIN 按配置构建 DIN 模型。
func (c *ModelConfig) BuildDIN() (*model.DIN, error) {
	columns, err := c.FeatureColumns()
	if err != nil {
		return nil, err
	}
	if len(c.Behavior) == 0 {
		return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeSchemaMismatch,
			"din config: at least one behavior pair is required")
	}
	behaviorFeatures := make([]string, 0, len(c.Behavior))
	behaviorSeqFeatures := make([]string, 0, len(c.Behavior))
	for _, p := range c.Behavior {
		behaviorFeatures = append(behaviorFeatures, p.Candidate)
		behaviorSeqFeatures = append(behaviorSeqFeatures, p.Sequence)
	}
	return model.NewDIN(columns, behaviorFeatures, behaviorSeqFeatures, &model.DINConfig{
		AttentionHidden: c.Model.AttentionHidden,
		DNNHidden:       c.Model.DNNHidden,
		Activation:      c.Model.Activation,
		Seed:            c.Model.Seed,
	})
}

// BuildModel 按 model.type 构建模型（din 或 dnn，默认 din）。
func (c *ModelConfig) BuildModel() (model.BatchRanker, error) {
	switch c.Model.Type {
	case "", "din":
		return c.BuildDIN()
	case "dnn":
		columns, err := c.FeatureColumns()
		if err != nil {
			return nil, err
		}
		return model.NewDNN(columns, &model.DNNConfig{
			Hidden:     c.Model.DNNHidden,
			Activation: c.Model.Activation,
			Seed:       c.Model.Seed,
		})
	default:
		return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeSchemaMismatch,
			fmt.Sprintf("model config: unknown model type %q", c.Model.Type))
	}
}
