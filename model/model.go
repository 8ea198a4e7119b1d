package model

import (
	"context"

	"github.com/rushteam/deepctr/core"
)

// BatchRanker 是打分模型的最小抽象：输入命名批次，输出每个样本的点击概率。
// 具体实现可以是本地模型（DIN/DNN），也可以封装远程打分服务。
type BatchRanker interface {
	Name() string
	PredictBatch(ctx context.Context, batch *core.Batch) ([]float64, error)
}
