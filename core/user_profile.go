package core

import "time"

// UserProfile 是用户画像的核心抽象，DIN 打分所需的用户侧输入都从这里取：
//   - 静态属性（user_id、性别、年龄）对应 Sparse/Dense 特征列
//   - RecentClicks 对应 VarLenSparse 行为序列特征列
type UserProfile struct {
	UserID int64

	// 静态属性
	Gender   string // male / female / unknown
	Age      int
	Location string

	// 行为序列（短期兴趣来源，按时间先后排列，越靠后越新）
	RecentClicks []int64

	// 其余数值属性，按特征名直接进批次
	Attrs map[string]float64

	// 元数据
	UpdateTime time.Time
}

// NewUserProfile 创建一个新的用户画像。
func NewUserProfile(userID int64) *UserProfile {
	return &UserProfile{
		UserID:       userID,
		RecentClicks: make([]int64, 0),
		Attrs:        make(map[string]float64),
		UpdateTime:   time.Now(),
	}
}

// AddRecentClick 追加一条点击记录，超过 maxSize 时丢弃最旧的。
func (p *UserProfile) AddRecentClick(itemID int64, maxSize int) {
	if p.RecentClicks == nil {
		p.RecentClicks = make([]int64, 0)
	}
	p.RecentClicks = append(p.RecentClicks, itemID)
	if maxSize > 0 && len(p.RecentClicks) > maxSize {
		p.RecentClicks = p.RecentClicks[len(p.RecentClicks)-maxSize:]
	}
	p.UpdateTime = time.Now()
}
