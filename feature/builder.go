package feature

import (
	"context"
	"fmt"

	"github.com/rushteam/deepctr/core"
	"github.com/rushteam/deepctr/pkg/conv"
)

// BatchBuilder 按特征列声明把请求上下文与候选物品组装成模型批次。
//
// 每个特征名的取值来源（优先级顺序）：
//   1. VarLenSparse 列：HistoryLoader（若配置），否则 UserProfile.RecentClicks
//   2. 物品特征：Item.Features[name]
//   3. 用户特征："user_id" 取 UserProfile.UserID，其余查 UserProfile.Attrs
//   4. 请求参数：RecommendContext.Params[name]（可转 float64 或 []float64）
//
// 找不到取值的列是 schema/使用方不一致，直接报错而不是静默补零。
type BatchBuilder struct {
	Columns []core.FeatureColumn

	// History 为空时序列特征从 UserProfile.RecentClicks 构建
	History *HistoryLoader
}

// NewBatchBuilder 创建批次构建器。
func NewBatchBuilder(columns []core.FeatureColumn, opts ...BatchBuilderOption) (*BatchBuilder, error) {
	if err := core.ValidateColumns(columns); err != nil {
		return nil, err
	}
	b := &BatchBuilder{Columns: columns}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// BatchBuilderOption 是构建器配置选项。
type BatchBuilderOption func(*BatchBuilder)

// WithHistoryLoader 设置行为序列加载器（优先于 UserProfile.RecentClicks）。
func WithHistoryLoader(loader *HistoryLoader) BatchBuilderOption {
	return func(b *BatchBuilder) {
		b.History = loader
	}
}

// Build 为一批候选物品构建打分批次，每个物品一行。
func (b *BatchBuilder) Build(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) (*core.Batch, error) {
	if rctx == nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			"batch builder: nil recommend context")
	}
	batch := core.NewBatch(len(items))
	for _, fc := range b.Columns {
		rows, err := b.columnRows(ctx, rctx, items, fc)
		if err != nil {
			return nil, err
		}
		if err := batch.Set(fc.FeatureName(), rows); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

func (b *BatchBuilder) columnRows(ctx context.Context, rctx *core.RecommendContext, items []*core.Item, fc core.FeatureColumn) ([][]float64, error) {
	switch c := fc.(type) {
	case core.VarLenSparseFeat:
		row, err := b.historyRow(ctx, rctx, c)
		if err != nil {
			return nil, err
		}
		// 同一请求内所有候选共享同一条行为序列
		rows := make([][]float64, len(items))
		for i := range rows {
			rows[i] = row
		}
		return rows, nil
	case core.SparseFeat, core.DenseFeat:
		rows := make([][]float64, len(items))
		for i, it := range items {
			row, err := b.valueRow(rctx, it, fc)
			if err != nil {
				return nil, err
			}
			rows[i] = row
		}
		return rows, nil
	default:
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeSchemaMismatch,
			fmt.Sprintf("batch builder: unknown feature column variant %T", fc))
	}
}

func (b *BatchBuilder) historyRow(ctx context.Context, rctx *core.RecommendContext, c core.VarLenSparseFeat) ([]float64, error) {
	if b.History != nil {
		return b.History.Load(ctx, rctx.UserID)
	}
	if rctx.User != nil {
		return PadSequence(rctx.User.RecentClicks, c.MaxLen), nil
	}
	// 无画像也无加载器：合法的"无历史"，全 padding
	return PadSequence(nil, c.MaxLen), nil
}

func (b *BatchBuilder) valueRow(rctx *core.RecommendContext, it *core.Item, fc core.FeatureColumn) ([]float64, error) {
	name := fc.FeatureName()
	width := fc.SlotWidth()

	if it != nil {
		if v, ok := it.Features[name]; ok {
			return scalarRow(v, width, name)
		}
	}
	if name == "user_id" {
		return scalarRow(float64(rctx.UserID), width, name)
	}
	if rctx.User != nil {
		if v, ok := rctx.User.Attrs[name]; ok {
			return scalarRow(v, width, name)
		}
	}
	if v, ok := rctx.Params[name]; ok {
		if f, ok := conv.ToFloat64(v); ok {
			return scalarRow(f, width, name)
		}
		if vec, ok := conv.ToFloat64Slice(v); ok {
			if len(vec) != width {
				return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeShapeMismatch,
					fmt.Sprintf("batch builder: param %q has width %d, column wants %d", name, len(vec), width))
			}
			return vec, nil
		}
		if vec, ok := v.([]float64); ok {
			if len(vec) != width {
				return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeShapeMismatch,
					fmt.Sprintf("batch builder: param %q has width %d, column wants %d", name, len(vec), width))
			}
			return vec, nil
		}
	}
	return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeShapeMismatch,
		fmt.Sprintf("batch builder: no value for feature %q", name))
}

func scalarRow(v float64, width int, name string) ([]float64, error) {
	if width != 1 {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("batch builder: feature %q wants width %d, got scalar", name, width))
	}
	return []float64{v}, nil
}
