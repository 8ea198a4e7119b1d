package rank

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/deepctr/core"
	"github.com/rushteam/deepctr/feature"
	"github.com/rushteam/deepctr/model"
	"github.com/rushteam/deepctr/pipeline"
	"github.com/rushteam/deepctr/pkg/utils"
)

// DINNode 是使用 DIN 模型的排序 Node。
// 先按模型的特征列声明把上下文与候选组装成批次，再整批打分并按分数降序排列。
type DINNode struct {
	Model model.BatchRanker

	// Builder 按特征列声明组装打分批次
	Builder *feature.BatchBuilder

	// Concurrency 是打分并行度：>1 时把候选切块并行打分（模型只读，安全）
	Concurrency int
}

func (n *DINNode) Name() string        { return "rank.din" }
func (n *DINNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *DINNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || n.Builder == nil || len(items) == 0 {
		return items, nil
	}

	probs, err := n.score(ctx, rctx, items)
	if err != nil {
		return nil, err
	}

	for i, it := range items {
		it.Score = probs[i]
		it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items, nil
}

func (n *DINNode) score(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]float64, error) {
	if n.Concurrency <= 1 || len(items) < 2 {
		batch, err := n.Builder.Build(ctx, rctx, items)
		if err != nil {
			return nil, err
		}
		return n.Model.PredictBatch(ctx, batch)
	}

	probs := make([]float64, len(items))
	chunk := (len(items) + n.Concurrency - 1) / n.Concurrency
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(items); lo += chunk {
		lo := lo
		hi := lo + chunk
		if hi > len(items) {
			hi = len(items)
		}
		g.Go(func() error {
			batch, err := n.Builder.Build(gctx, rctx, items[lo:hi])
			if err != nil {
				return err
			}
			out, err := n.Model.PredictBatch(gctx, batch)
			if err != nil {
				return err
			}
			copy(probs[lo:hi], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return probs, nil
}
