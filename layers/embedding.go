package layers

import (
	"fmt"
	"math/rand"

	"github.com/rushteam/deepctr/core"
)

// Embedding 是一张可学习的查表：类别下标 -> 稠密向量。
//
// 两种形态：
//   - Sparse 特征：Rows = vocabulary_size
//   - VarLenSparse 特征：Rows = vocabulary_size + 1，第 0 行是 padding 保留行，
//     恒为零向量且不接收梯度（MaskZero = true）
type Embedding struct {
	FeatureName string
	Rows        int
	Dim         int
	MaskZero    bool

	W [][]float64

	grad map[int][]float64
}

// NewEmbedding 创建 embedding 表，行向量按 (rand-0.5)/dim 初始化。
// maskZero 为 true 时第 0 行保持全零。
func NewEmbedding(name string, rows, dim int, maskZero bool, rng *rand.Rand) *Embedding {
	e := &Embedding{
		FeatureName: name,
		Rows:        rows,
		Dim:         dim,
		MaskZero:    maskZero,
		W:           make([][]float64, rows),
		grad:        make(map[int][]float64),
	}
	for r := 0; r < rows; r++ {
		e.W[r] = make([]float64, dim)
		if maskZero && r == 0 {
			continue
		}
		for d := 0; d < dim; d++ {
			e.W[r][d] = (rng.Float64() - 0.5) / float64(dim)
		}
	}
	return e
}

// Lookup 取一行，下标越界返回 INVALID_INPUT。
func (e *Embedding) Lookup(idx int) ([]float64, error) {
	if idx < 0 || idx >= e.Rows {
		return nil, core.NewDomainError(core.ModuleLayers, core.ErrorCodeInvalidInput,
			fmt.Sprintf("embedding %q: index %d out of range [0, %d)", e.FeatureName, idx, e.Rows))
	}
	return e.W[idx], nil
}

// LookupSequence 查一条下标序列，返回逐位置向量与有效掩码。
// 位置有效当且仅当下标非 0（0 是 padding 保留下标）。
func (e *Embedding) LookupSequence(idxs []int) (keys [][]float64, mask []bool, err error) {
	keys = make([][]float64, len(idxs))
	mask = make([]bool, len(idxs))
	for t, idx := range idxs {
		row, err := e.Lookup(idx)
		if err != nil {
			return nil, nil, err
		}
		keys[t] = row
		mask[t] = idx != 0
	}
	return keys, mask, nil
}

// Accumulate 向某一行累积梯度；MaskZero 表的第 0 行会被忽略。
func (e *Embedding) Accumulate(idx int, g []float64) {
	if idx < 0 || idx >= e.Rows {
		return
	}
	if e.MaskZero && idx == 0 {
		return
	}
	row, ok := e.grad[idx]
	if !ok {
		row = make([]float64, e.Dim)
		e.grad[idx] = row
	}
	for d := 0; d < e.Dim && d < len(g); d++ {
		row[d] += g[d]
	}
}

// Step 应用累积梯度并清空。只有被查过的行有梯度，按稀疏方式遍历。
func (e *Embedding) Step(lr float64) {
	for idx, g := range e.grad {
		row := e.W[idx]
		for d := 0; d < e.Dim; d++ {
			row[d] -= lr * g[d]
		}
		delete(e.grad, idx)
	}
}
