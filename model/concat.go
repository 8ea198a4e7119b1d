package model

import (
	"math"

	"github.com/rushteam/deepctr/core"
)

// Concat 拼接若干向量。
//
// 边界约定：
//   - 零个输入是致命错误（SHAPE_MISMATCH），不会静默产生空向量
//   - 恰好一个输入原样返回（同一切片，不 reshape 不拷贝）
func Concat(inputs [][]float64) ([]float64, error) {
	switch len(inputs) {
	case 0:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
			"concat: no inputs")
	case 1:
		return inputs[0], nil
	}
	total := 0
	for _, v := range inputs {
		total += len(v)
	}
	out := make([]float64, 0, total)
	for _, v := range inputs {
		out = append(out, v...)
	}
	return out, nil
}

// asIndex 把批次里以 float64 承载的类别下标还原为 int。
// 非整数或负数说明上游数据有问题，返回 false 由调用方报 INVALID_INPUT。
func asIndex(v float64) (int, bool) {
	if v < 0 || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}
