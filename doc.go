// Package deepctr 是一个深度 CTR 预估工具包（Deep CTR Kit）。
//
// 设计要点：
// - Columns-first: 模型结构由特征列声明驱动（SparseFeat / DenseFeat / VarLenSparseFeat）
// - 兴趣激活: DIN 按候选对行为序列做显式 mask 的注意力池化，权重不做 softmax 归一
// - Pipeline 可扩展: 特征补齐 → 精排打分通过 Node 串联，自定义 Node 即可插拔扩展
package deepctr

import (
	"github.com/rushteam/deepctr/core"
	"github.com/rushteam/deepctr/pipeline"
)

// 轻量 facade：便于用户直接 import "deepctr" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

type FeatureColumn = core.FeatureColumn
type SparseFeat = core.SparseFeat
type DenseFeat = core.DenseFeat
type VarLenSparseFeat = core.VarLenSparseFeat
type Batch = core.Batch

const (
	KindFeature     = pipeline.KindFeature
	KindRank        = pipeline.KindRank
	KindPostProcess = pipeline.KindPostProcess
)
