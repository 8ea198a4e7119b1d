package feast

import (
	"context"
	"strings"

	"github.com/rushteam/deepctr/core"
	"github.com/rushteam/deepctr/pipeline"
)

// FillNode 是精排前的特征补齐节点：按物料实体批量拉取在线特征，
// 写回 Item.Features 后再交给 rank 节点打分。
//
// 特征名采用 Feast 的 "view:feature" 形式，写回时去掉视图前缀，
// 只保留 feature 名，与特征列声明直接对应。
type FillNode struct {
	Client Client

	// EntityKey 物料实体的 join key，例如 "item_id"
	EntityKey string

	// Features 需要拉取的特征名称列表，例如 ["item_stats:ctr_7d"]
	Features []string

	// Project 项目名称（可选）
	Project string
}

func (n *FillNode) Name() string        { return "feast.fill" }
func (n *FillNode) Kind() pipeline.Kind { return pipeline.KindFeature }

// Process 为每个候选补齐在线特征。取不到的特征保持缺省，不在此处置零。
func (n *FillNode) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.Client == nil || len(items) == 0 || len(n.Features) == 0 {
		return items, nil
	}
	entityKey := n.EntityKey
	if entityKey == "" {
		entityKey = "item_id"
	}

	entityRows := make([]map[string]interface{}, len(items))
	for i, it := range items {
		entityRows[i] = map[string]interface{}{entityKey: it.ID}
	}

	resp, err := n.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   n.Features,
		EntityRows: entityRows,
		Project:    n.Project,
	})
	if err != nil {
		return nil, err
	}

	for i, fv := range resp.FeatureVectors {
		if i >= len(items) {
			break
		}
		it := items[i]
		if it.Features == nil {
			it.Features = make(map[string]float64, len(fv.Values))
		}
		for name, raw := range fv.Values {
			f, ok := raw.(float64)
			if !ok {
				continue
			}
			it.Features[featureKey(name)] = f
		}
	}
	return items, nil
}

// featureKey 去掉 "view:feature" 的视图前缀。
func featureKey(name string) string {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}

var _ pipeline.Node = (*FillNode)(nil)
