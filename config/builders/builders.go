// Package builders 在 init 中注册内置 Node 的配置构建器。
// 配置驱动的入口需匿名导入本包：import _ "github.com/rushteam/deepctr/config/builders"
package builders

import (
	"fmt"

	"github.com/rushteam/deepctr/config"
	"github.com/rushteam/deepctr/feast"
	"github.com/rushteam/deepctr/feature"
	"github.com/rushteam/deepctr/pipeline"
	"github.com/rushteam/deepctr/pkg/conv"
	"github.com/rushteam/deepctr/rank"
)

func init() {
	config.Register("rank.din", BuildDINNode)
	config.Register("rank.dnn", BuildDNNNode)
	config.Register("feature.feast", BuildFeastFillNode)
}

// BuildDINNode 根据配置构建 DIN 精排节点。
//
// 配置示例：
//
//	type: rank.din
//	config:
//	  model_config: conf/din.yaml
//	  concurrency: 4
func BuildDINNode(cfg map[string]interface{}) (pipeline.Node, error) {
	path := conv.ConfigGet[string](cfg, "model_config", "")
	if path == "" {
		return nil, fmt.Errorf("model_config not found")
	}
	mc, err := config.LoadModelConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load model config: %w", err)
	}
	m, err := mc.BuildDIN()
	if err != nil {
		return nil, fmt.Errorf("build din: %w", err)
	}
	columns, err := mc.FeatureColumns()
	if err != nil {
		return nil, err
	}
	builder, err := feature.NewBatchBuilder(columns)
	if err != nil {
		return nil, err
	}
	node := &rank.DINNode{
		Model:   m,
		Builder: builder,
	}
	if n := conv.ConfigGetInt64(cfg, "concurrency", 0); n > 0 {
		node.Concurrency = int(n)
	}
	return node, nil
}

// BuildFeastFillNode 根据配置构建 Feast 在线特征补齐节点。
//
// 配置示例：
//
//	type: feature.feast
//	config:
//	  host: localhost
//	  port: 6565
//	  project: rec
//	  entity_key: item_id
//	  features: ["item_stats:ctr_7d", "item_stats:price"]
func BuildFeastFillNode(cfg map[string]interface{}) (pipeline.Node, error) {
	host := conv.ConfigGet[string](cfg, "host", "")
	if host == "" {
		return nil, fmt.Errorf("host not found")
	}
	features := conv.SliceAnyToString(cfg["features"])
	if len(features) == 0 {
		return nil, fmt.Errorf("features not found")
	}
	project := conv.ConfigGet[string](cfg, "project", "")
	client, err := feast.NewGrpcClient(host, int(conv.ConfigGetInt64(cfg, "port", 0)), project)
	if err != nil {
		return nil, fmt.Errorf("create feast client: %w", err)
	}
	return &feast.FillNode{
		Client:    client,
		EntityKey: conv.ConfigGet[string](cfg, "entity_key", "item_id"),
		Features:  features,
		Project:   project,
	}, nil
}

// BuildDNNNode 根据配置构建 DNN 精排节点（无行为序列的基线模型）。
func BuildDNNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	path := conv.ConfigGet[string](cfg, "model_config", "")
	if path == "" {
		return nil, fmt.Errorf("model_config not found")
	}
	mc, err := config.LoadModelConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load model config: %w", err)
	}
	m, err := mc.BuildModel()
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	columns, err := mc.FeatureColumns()
	if err != nil {
		return nil, err
	}
	builder, err := feature.NewBatchBuilder(columns)
	if err != nil {
		return nil, err
	}
	node := &rank.DINNode{
		Model:   m,
		Builder: builder,
	}
	if n := conv.ConfigGetInt64(cfg, "concurrency", 0); n > 0 {
		node.Concurrency = int(n)
	}
	return node, nil
}
