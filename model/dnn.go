package model

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rushteam/deepctr/core"
	"github.com/rushteam/deepctr/layers"
)

// DNN 是不带行为序列的前馈打分模型，作为 DIN 的基线：
// dense 输入 + sparse embedding 摊平拼接后直接进全连接网络。
//
// 使用场景：
//   - 没有行为序列数据的冷启动场景
//   - 与 DIN 做离线效果对比
type DNN struct {
	columns []core.FeatureColumn

	sparse []core.SparseFeat
	dense  []core.DenseFeat

	embeddings map[string]*layers.Embedding

	hidden []*layers.Dense
	out    *layers.Dense

	inputDim int
}

// DNNConfig 是 DNN 的结构超参数。
type DNNConfig struct {
	Hidden     []int  // 默认 128/64
	Activation string // "prelu"（默认）或 "dice"
	Seed       int64
}

// NewDNN 构建 DNN 模型。只接受 Sparse/Dense 特征列；
// 含 VarLenSparse 列的 schema 应使用 DIN。
func NewDNN(columns []core.FeatureColumn, cfg *DNNConfig) (*DNN, error) {
	if cfg == nil {
		cfg = &DNNConfig{}
	}
	if err := core.ValidateColumns(columns); err != nil {
		return nil, err
	}
	m := &DNN{
		columns:    columns,
		embeddings: make(map[string]*layers.Embedding),
	}
	var varlen []core.VarLenSparseFeat
	m.sparse, m.dense, varlen = core.PartitionColumns(columns)
	if len(varlen) > 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeSchemaMismatch,
			fmt.Sprintf("dnn: varlen sparse feature %q needs attention pooling, use the din model", varlen[0].Name))
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	for _, c := range m.sparse {
		m.embeddings[c.Name] = layers.NewEmbedding(c.Name, c.VocabularySize, c.EmbeddingDim, false, rng)
		m.inputDim += c.EmbeddingDim
	}
	for _, c := range m.dense {
		m.inputDim += c.Dimension
	}

	hiddenUnits := cfg.Hidden
	if hiddenUnits == nil {
		hiddenUnits = []int{128, 64}
	}
	in := m.inputDim
	for _, width := range hiddenUnits {
		act, err := layers.NewActivation(cfg.Activation, width)
		if err != nil {
			return nil, err
		}
		m.hidden = append(m.hidden, layers.NewDense(in, width, act, rng))
		in = width
	}
	m.out = layers.NewDense(in, 1, nil, rng)
	return m, nil
}

func (m *DNN) Name() string { return "dnn" }

// PredictBatch 对一个命名批次打分。
func (m *DNN) PredictBatch(ctx context.Context, batch *core.Batch) ([]float64, error) {
	if err := batch.Validate(m.columns); err != nil {
		return nil, err
	}
	probs := make([]float64, batch.Size)
	for i := 0; i < batch.Size; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := m.forwardRow(batch, i)
		if err != nil {
			return nil, err
		}
		probs[i] = c.prob
	}
	return probs, nil
}

// TrainStep 对一个 minibatch 做一次前向 + 反向 + 参数更新。
func (m *DNN) TrainStep(batch *core.Batch, labels []float64, lr float64) (float64, error) {
	if err := batch.Validate(m.columns); err != nil {
		return 0, err
	}
	if len(labels) != batch.Size {
		return 0, core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("dnn: %d labels for batch of %d", len(labels), batch.Size))
	}
	n := float64(batch.Size)
	loss := 0.0
	for i := 0; i < batch.Size; i++ {
		c, err := m.forwardRow(batch, i)
		if err != nil {
			return 0, err
		}
		loss += bceLoss(c.prob, labels[i])
		m.backwardRow(c, (c.prob-labels[i])/n)
	}
	for _, e := range m.embeddings {
		e.Step(lr)
	}
	for _, d := range m.hidden {
		d.Step(lr)
	}
	m.out.Step(lr)
	return loss / n, nil
}

type dnnRowCache struct {
	denseWidth int
	sparseIdx  []int
	input      []float64
	xs, zs     [][]float64
	prob       float64
}

func (m *DNN) forwardRow(batch *core.Batch, row int) (*dnnRowCache, error) {
	c := &dnnRowCache{}
	var parts [][]float64
	for _, fc := range m.dense {
		rows, err := batch.Column(fc.Name)
		if err != nil {
			return nil, err
		}
		parts = append(parts, rows[row])
		c.denseWidth += fc.Dimension
	}
	for _, fc := range m.sparse {
		rows, err := batch.Column(fc.Name)
		if err != nil {
			return nil, err
		}
		idx, ok := asIndex(rows[row][0])
		if !ok {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("dnn: sparse feature %q row %d: %v is not a valid category index", fc.Name, row, rows[row][0]))
		}
		emb, err := m.embeddings[fc.Name].Lookup(idx)
		if err != nil {
			return nil, err
		}
		c.sparseIdx = append(c.sparseIdx, idx)
		parts = append(parts, emb)
	}

	input, err := Concat(parts)
	if err != nil {
		return nil, err
	}
	c.input = input

	cur := input
	for _, d := range m.hidden {
		c.xs = append(c.xs, cur)
		y, z := d.Forward(cur)
		c.zs = append(c.zs, z)
		cur = y
	}
	c.xs = append(c.xs, cur)
	y, z := m.out.Forward(cur)
	c.zs = append(c.zs, z)
	c.prob = layers.Sigmoid(y[0])
	return c, nil
}

func (m *DNN) backwardRow(c *dnnRowCache, dLogit float64) {
	last := len(c.xs) - 1
	g := m.out.Backward(c.xs[last], c.zs[last], []float64{dLogit})
	for l := len(m.hidden) - 1; l >= 0; l-- {
		g = m.hidden[l].Backward(c.xs[l], c.zs[l], g)
	}
	off := c.denseWidth
	for i, fc := range m.sparse {
		m.embeddings[fc.Name].Accumulate(c.sparseIdx[i], g[off:off+fc.EmbeddingDim])
		off += fc.EmbeddingDim
	}
}

var _ BatchRanker = (*DNN)(nil)
