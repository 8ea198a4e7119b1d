package layers

import (
	"fmt"
	"math/rand"

	"github.com/rushteam/deepctr/core"
)

// DefaultAttentionHidden 是 Local Activation Unit 的默认隐藏层宽度。
var DefaultAttentionHidden = []int{256, 128, 64}

// LocalActivationUnit 计算候选物品与每个历史行为的相关性分数。
//
// 对每个历史位置：
//   1. 广播 query，与 key 构造交互特征 [q, k, q-k, q*k]（宽度 4*dim）
//   2. 交互特征过若干全连接层（默认 256/128/64，参数化激活）
//   3. 最后线性投影到一个标量分数
//
// 显式构造差/积交互项（而不是直接点积）让网络能学到余弦相似度之外的
// 非线性相关性。本层不做任何归一化，掩码与加权在 AttentionPooling 里处理。
type LocalActivationUnit struct {
	Dim int

	hidden []*Dense
	out    *Dense
}

// NewLocalActivationUnit 创建打分单元。hiddenUnits 为 nil 时用默认宽度，
// activation 取 "prelu" 或 "dice"。
func NewLocalActivationUnit(dim int, hiddenUnits []int, activation string, rng *rand.Rand) (*LocalActivationUnit, error) {
	if dim <= 0 {
		return nil, core.NewDomainError(core.ModuleLayers, core.ErrorCodeInvalidInput,
			fmt.Sprintf("local activation unit: embedding dim must be positive, got %d", dim))
	}
	if hiddenUnits == nil {
		hiddenUnits = DefaultAttentionHidden
	}
	u := &LocalActivationUnit{Dim: dim}
	in := 4 * dim
	for _, width := range hiddenUnits {
		act, err := NewActivation(activation, width)
		if err != nil {
			return nil, err
		}
		u.hidden = append(u.hidden, NewDense(in, width, act, rng))
		in = width
	}
	u.out = NewDense(in, 1, nil, rng)
	return u, nil
}

// Forward 对长度 L 的历史序列返回 L 个分数；L = 0 时返回空切片。
func (u *LocalActivationUnit) Forward(query []float64, keys [][]float64) ([]float64, error) {
	if len(query) != u.Dim {
		return nil, core.NewDomainError(core.ModuleLayers, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("local activation unit: query width %d, want %d", len(query), u.Dim))
	}
	scores := make([]float64, len(keys))
	for t, key := range keys {
		if len(key) != u.Dim {
			return nil, core.NewDomainError(core.ModuleLayers, core.ErrorCodeShapeMismatch,
				fmt.Sprintf("local activation unit: key %d width %d, want %d", t, len(key), u.Dim))
		}
		c := u.forwardOne(query, key)
		scores[t] = c.score
	}
	return scores, nil
}

// SetTraining 切换隐藏层 Dice 激活的训练/推理模式。
func (u *LocalActivationUnit) SetTraining(training bool) {
	for _, d := range u.hidden {
		if dice, ok := d.Act.(*Dice); ok {
			dice.SetTraining(training)
		}
	}
}

// Step 应用所有层的累积梯度。
func (u *LocalActivationUnit) Step(lr float64) {
	for _, d := range u.hidden {
		d.Step(lr)
	}
	u.out.Step(lr)
}

// lauCache 保存单个位置一次前向的逐层输入与预激活，供反向使用。
type lauCache struct {
	xs    [][]float64 // 每层输入，xs[0] 是 4*dim 的交互特征
	zs    [][]float64 // 每层预激活
	score float64
}

func (u *LocalActivationUnit) forwardOne(query, key []float64) *lauCache {
	dim := u.Dim
	x := make([]float64, 4*dim)
	for i := 0; i < dim; i++ {
		x[i] = query[i]
		x[dim+i] = key[i]
		x[2*dim+i] = query[i] - key[i]
		x[3*dim+i] = query[i] * key[i]
	}

	c := &lauCache{}
	cur := x
	for _, d := range u.hidden {
		c.xs = append(c.xs, cur)
		y, z := d.Forward(cur)
		c.zs = append(c.zs, z)
		cur = y
	}
	c.xs = append(c.xs, cur)
	y, z := u.out.Forward(cur)
	c.zs = append(c.zs, z)
	c.score = y[0]
	return c
}

// backwardOne 对单个位置反向传播分数梯度，返回对 query 与 key 的梯度。
// 层参数梯度在各 Dense 内累积。
func (u *LocalActivationUnit) backwardOne(query, key []float64, c *lauCache, dScore float64) (dQuery, dKey []float64) {
	last := len(c.xs) - 1
	g := u.out.Backward(c.xs[last], c.zs[last], []float64{dScore})
	for l := len(u.hidden) - 1; l >= 0; l-- {
		g = u.hidden[l].Backward(c.xs[l], c.zs[l], g)
	}

	// 交互特征的梯度按构造方式拆回 query / key：
	//   d[q]   += g[0:dim]
	//   d[k]   += g[dim:2dim]
	//   d[q-k] -> dq += g, dk -= g
	//   d[q*k] -> dq += g*k, dk += g*q
	dim := u.Dim
	dQuery = make([]float64, dim)
	dKey = make([]float64, dim)
	for i := 0; i < dim; i++ {
		dQuery[i] = g[i] + g[2*dim+i] + g[3*dim+i]*key[i]
		dKey[i] = g[dim+i] - g[2*dim+i] + g[3*dim+i]*query[i]
	}
	return dQuery, dKey
}

// AttentionPooling 把一条 padding 过的变长历史序列收敛成一个定长向量。
//
// 关键设计：
//   - 掩码来自显式的有效位标记（位置下标非 0），与 embedding 取值无关
//   - 无效位置的分数直接置 0（不是 -inf），分数本身就是线性权重，
//     没有 softmax 归一化
//   - 全部位置无效（空历史）时输出全零向量，这是合法的"无历史"信号
type AttentionPooling struct {
	Unit *LocalActivationUnit
}

// NewAttentionPooling 创建注意力池化层。
func NewAttentionPooling(dim int, hiddenUnits []int, activation string, rng *rand.Rand) (*AttentionPooling, error) {
	unit, err := NewLocalActivationUnit(dim, hiddenUnits, activation, rng)
	if err != nil {
		return nil, err
	}
	return &AttentionPooling{Unit: unit}, nil
}

// Forward 返回加权和向量（宽度恒为 dim，与掩码多少无关）。
func (p *AttentionPooling) Forward(query []float64, keys [][]float64, mask []bool) ([]float64, error) {
	scores, err := p.Scores(query, keys, mask)
	if err != nil {
		return nil, err
	}
	out := make([]float64, p.Unit.Dim)
	for t, w := range scores {
		if w == 0 {
			continue
		}
		key := keys[t]
		for i := range out {
			out[i] += w * key[i]
		}
	}
	return out, nil
}

// Scores 返回掩码后的逐位置权重：无效位置为 0，有效位置是
// Local Activation Unit 的原始分数。
func (p *AttentionPooling) Scores(query []float64, keys [][]float64, mask []bool) ([]float64, error) {
	if len(mask) != len(keys) {
		return nil, core.NewDomainError(core.ModuleLayers, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("attention pooling: mask length %d, keys length %d", len(mask), len(keys)))
	}
	if len(query) != p.Unit.Dim {
		return nil, core.NewDomainError(core.ModuleLayers, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("attention pooling: query width %d, want %d", len(query), p.Unit.Dim))
	}
	scores := make([]float64, len(keys))
	for t, key := range keys {
		if !mask[t] {
			continue
		}
		if len(key) != p.Unit.Dim {
			return nil, core.NewDomainError(core.ModuleLayers, core.ErrorCodeShapeMismatch,
				fmt.Sprintf("attention pooling: key %d width %d, want %d", t, len(key), p.Unit.Dim))
		}
		scores[t] = p.Unit.forwardOne(query, key).score
	}
	return scores, nil
}

// Backward 对池化输出的梯度 dOut 反向传播，返回对 query 与每个 key 的梯度。
// 无效位置的 key 梯度为零（权重路径与分数路径都被掩码切断）。
func (p *AttentionPooling) Backward(query []float64, keys [][]float64, mask []bool, dOut []float64) (dQuery []float64, dKeys [][]float64, err error) {
	if len(mask) != len(keys) {
		return nil, nil, core.NewDomainError(core.ModuleLayers, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("attention pooling: mask length %d, keys length %d", len(mask), len(keys)))
	}
	dim := p.Unit.Dim
	dQuery = make([]float64, dim)
	dKeys = make([][]float64, len(keys))
	for t := range dKeys {
		dKeys[t] = make([]float64, dim)
	}
	for t, key := range keys {
		if !mask[t] {
			continue
		}
		c := p.Unit.forwardOne(query, key)

		// out = sum_t w_t*k_t：权重路径 dk += w*dOut，分数路径 dw = <dOut, k>
		dScore := 0.0
		for i := 0; i < dim; i++ {
			dKeys[t][i] += c.score * dOut[i]
			dScore += dOut[i] * key[i]
		}
		dq, dk := p.Unit.backwardOne(query, key, c, dScore)
		for i := 0; i < dim; i++ {
			dQuery[i] += dq[i]
			dKeys[t][i] += dk[i]
		}
	}
	return dQuery, dKeys, nil
}

// Step 应用打分单元的累积梯度。
func (p *AttentionPooling) Step(lr float64) {
	p.Unit.Step(lr)
}
