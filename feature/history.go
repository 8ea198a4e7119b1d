package feature

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rushteam/deepctr/core"
)

// HistoryLoader 从 Store 读取用户行为序列，供 VarLenSparse 特征列取数。
//
// 存储约定：有序集合，key 为 {KeyPrefix}:{userID}，member 是物品下标的
// 十进制字符串，score 是行为时间戳。读取时取最近的 MaxLen 条。
type HistoryLoader struct {
	Store core.KeyValueStore

	// KeyPrefix 是 Store 中的 key 前缀，默认 "user:clicks"
	KeyPrefix string

	// MaxLen 是序列特征声明的 maxlen，读出的序列会 padding 到该长度
	MaxLen int
}

// Load 读取并整形一个用户的行为序列；用户无历史时返回全 padding 行。
func (l *HistoryLoader) Load(ctx context.Context, userID int64) ([]float64, error) {
	if l.Store == nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			"history loader: store is nil")
	}
	if l.MaxLen <= 0 {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			"history loader: maxlen must be positive")
	}

	keyPrefix := l.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "user:clicks"
	}
	key := fmt.Sprintf("%s:%d", keyPrefix, userID)

	// ZRange 按 score 降序返回最近的行为，整形前还原成时间先后序
	members, err := l.Store.ZRange(ctx, key, 0, int64(l.MaxLen)-1)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return PadSequence(nil, l.MaxLen), nil
		}
		return nil, fmt.Errorf("load history for user %d: %w", userID, err)
	}

	seq := make([]int64, 0, len(members))
	for i := len(members) - 1; i >= 0; i-- {
		idx, err := strconv.ParseInt(members[i], 10, 64)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
				fmt.Sprintf("history loader: member %q is not an item index", members[i]))
		}
		seq = append(seq, idx)
	}
	return PadSequence(seq, l.MaxLen), nil
}

// Record 追加一条行为记录。
func (l *HistoryLoader) Record(ctx context.Context, userID, itemIdx int64, timestamp float64) error {
	if l.Store == nil {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			"history loader: store is nil")
	}
	keyPrefix := l.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "user:clicks"
	}
	key := fmt.Sprintf("%s:%d", keyPrefix, userID)
	return l.Store.ZAdd(ctx, key, timestamp, strconv.FormatInt(itemIdx, 10))
}
