// Package store 只包含实现，接口定义在 core 包。
// 使用 core.Store 和 core.KeyValueStore 接口。
//
// 示例：
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
//	loader := &feature.HistoryLoader{Store: kv, MaxLen: 50}
package store
