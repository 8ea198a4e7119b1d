package core

// RecommendContext 承载用户/场景/实时信息，贯穿整个打分 Pipeline 透传。
type RecommendContext struct {
	UserID   int64
	DeviceID string
	Scene    string

	// User 是强类型用户画像，批次构建时优先从这里取特征
	User *UserProfile

	// Params 请求级上下文参数（hour、latitude 等数值特征可直接进批次）
	Params map[string]any
}
