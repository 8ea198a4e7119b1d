package feast

import (
	"context"
	"time"
)

// Client 是在线特征存储的客户端接口。
//
// Feast 提供在线特征存储（Online Store）与 Feature Server：
// 精排前用它补齐物料与用户的实时特征，再交给模型打分。
//
// 参考：https://github.com/feast-dev/feast
type Client interface {
	// GetOnlineFeatures 按实体行批量获取在线特征。
	//
	// 参数：
	//   - Features: 特征名称列表，例如 ["item_stats:ctr_7d", "item_stats:price"]
	//   - EntityRows: 实体行，例如 [{"item_id": 1001}, {"item_id": 1002}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接。
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求。
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表，例如 ["item_stats:ctr_7d", "item_stats:price"]
	Features []string

	// EntityRows 实体行，每行对应一个待取特征的实体
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，缺省使用客户端配置）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应。
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，与请求的 EntityRows 一一对应
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体的特征向量。
type FeatureVector struct {
	// Values 特征值，key 为特征名称
	Values map[string]interface{}

	// EntityRow 对应的实体行
	EntityRow map[string]interface{}
}

// ClientOption 客户端配置选项。
type ClientOption func(*ClientConfig)

// ClientConfig 客户端配置。
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration

	// Auth 认证信息（可选）
	Auth *AuthConfig
}

// AuthConfig 认证配置。type 目前仅支持 static（gRPC 静态 Token）。
type AuthConfig struct {
	Type  string
	Token string
}

// WithTimeout 设置请求超时时间。
func WithTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.Timeout = d }
}

// WithStaticToken 使用静态 Token 认证。
func WithStaticToken(token string) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = &AuthConfig{Type: "static", Token: token}
	}
}
