package core

import "fmt"

// FeatureColumn 是特征列的统一抽象，模型结构完全由特征列列表驱动。
//
// 三种变体：
//   - SparseFeat：类别特征，整数下标查 embedding 表
//   - DenseFeat：数值特征，直接进入网络
//   - VarLenSparseFeat：变长类别序列（如点击历史），右侧 padding 到固定长度
//
// 设计要点：
//   - 封闭的 sum type：featureColumn() 未导出，变体只能在本包内定义，
//     消费方用 type switch 做穷举分发，default 分支返回 SCHEMA_MISMATCH
//   - 列名是输入槽位与 embedding 表之间的 join key，schema 内必须唯一
type FeatureColumn interface {
	// FeatureName 返回列名（schema 内唯一）
	FeatureName() string

	// SlotWidth 返回该列对应输入槽位的宽度：
	// Sparse 为 1，Dense 为 Dimension，VarLenSparse 为 MaxLen
	SlotWidth() int

	featureColumn()
}

// SparseFeat 是类别特征列。
type SparseFeat struct {
	Name           string
	VocabularySize int // 类别取值个数（含保留槽位）
	EmbeddingDim   int
}

func (f SparseFeat) FeatureName() string { return f.Name }
func (f SparseFeat) SlotWidth() int      { return 1 }
func (f SparseFeat) featureColumn()      {}

// DenseFeat 是数值特征列。
type DenseFeat struct {
	Name      string
	Dimension int // 数值向量宽度
}

func (f DenseFeat) FeatureName() string { return f.Name }
func (f DenseFeat) SlotWidth() int      { return f.Dimension }
func (f DenseFeat) featureColumn()      {}

// VarLenSparseFeat 是变长类别序列特征列。
// 下标 0 是保留的 padding 哨兵：embedding 表会多出一行（vocabulary_size+1），
// 第 0 行恒为零向量且不参与训练，下游按位置下标是否为 0 计算有效掩码。
type VarLenSparseFeat struct {
	Name           string
	VocabularySize int
	EmbeddingDim   int
	MaxLen         int // padding 后的固定序列长度
}

func (f VarLenSparseFeat) FeatureName() string { return f.Name }
func (f VarLenSparseFeat) SlotWidth() int      { return f.MaxLen }
func (f VarLenSparseFeat) featureColumn()      {}

// ValidateColumns 在模型构建前对特征列做一次性校验，失败立即返回命名错误。
//
// 校验项：
//   - 列名非空且唯一（列名是槽位与 embedding 表的 join key）
//   - Sparse/VarLenSparse 的 vocabulary_size、embedding_dim 为正
//   - Dense 的 dimension 为正，VarLenSparse 的 maxlen 为正
func ValidateColumns(columns []FeatureColumn) error {
	if len(columns) == 0 {
		return NewDomainError(ModuleCore, ErrorCodeSchemaMismatch, "feature columns: empty schema")
	}
	seen := make(map[string]struct{}, len(columns))
	for _, fc := range columns {
		name := fc.FeatureName()
		if name == "" {
			return NewDomainError(ModuleCore, ErrorCodeSchemaMismatch, "feature columns: empty feature name")
		}
		if _, ok := seen[name]; ok {
			return NewDomainError(ModuleCore, ErrorCodeSchemaMismatch,
				fmt.Sprintf("feature columns: duplicate feature name %q", name))
		}
		seen[name] = struct{}{}

		switch c := fc.(type) {
		case SparseFeat:
			if c.VocabularySize <= 0 || c.EmbeddingDim <= 0 {
				return NewDomainError(ModuleCore, ErrorCodeSchemaMismatch,
					fmt.Sprintf("sparse feature %q: vocabulary_size and embedding_dim must be positive", name))
			}
		case DenseFeat:
			if c.Dimension <= 0 {
				return NewDomainError(ModuleCore, ErrorCodeSchemaMismatch,
					fmt.Sprintf("dense feature %q: dimension must be positive", name))
			}
		case VarLenSparseFeat:
			if c.VocabularySize <= 0 || c.EmbeddingDim <= 0 || c.MaxLen <= 0 {
				return NewDomainError(ModuleCore, ErrorCodeSchemaMismatch,
					fmt.Sprintf("varlen sparse feature %q: vocabulary_size, embedding_dim and maxlen must be positive", name))
			}
		default:
			return NewDomainError(ModuleCore, ErrorCodeSchemaMismatch,
				fmt.Sprintf("feature %q: unknown feature column variant %T", name, fc))
		}
	}
	return nil
}

// ColumnByName 按名查找特征列，找不到返回 SCHEMA_MISMATCH。
func ColumnByName(columns []FeatureColumn, name string) (FeatureColumn, error) {
	for _, fc := range columns {
		if fc.FeatureName() == name {
			return fc, nil
		}
	}
	return nil, NewDomainError(ModuleCore, ErrorCodeSchemaMismatch,
		fmt.Sprintf("feature %q: not declared in feature columns", name))
}

// PartitionColumns 将特征列按变体拆分，供模型装配分别处理。
func PartitionColumns(columns []FeatureColumn) (sparse []SparseFeat, dense []DenseFeat, varlen []VarLenSparseFeat) {
	for _, fc := range columns {
		switch c := fc.(type) {
		case SparseFeat:
			sparse = append(sparse, c)
		case DenseFeat:
			dense = append(dense, c)
		case VarLenSparseFeat:
			varlen = append(varlen, c)
		}
	}
	return sparse, dense, varlen
}
