package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/rushteam/deepctr/core"
	"github.com/rushteam/deepctr/layers"
)

// DefaultDNNHidden 是 DIN 输出侧 DNN 的默认隐藏层宽度。
var DefaultDNNHidden = []int{200, 80}

// DINConfig 是 DIN 的结构超参数。
type DINConfig struct {
	// AttentionHidden 是 Local Activation Unit 的隐藏层宽度，默认 256/128/64
	AttentionHidden []int

	// DNNHidden 是输出侧 DNN 的隐藏层宽度，默认 200/80
	DNNHidden []int

	// Activation 是参数化激活类型："prelu"（默认）或 "dice"
	Activation string

	// Seed 是权重初始化的随机种子，同一 seed 构建出的模型逐位一致
	Seed int64
}

// InputSlot 是一个命名输入槽位，与特征列 1:1 绑定，建模时创建一次，之后只读。
type InputSlot struct {
	Name  string
	Width int
}

// DIN 是 Deep Interest Network（深度兴趣网络）模型。
//
// 核心思想：
//   - 用户行为序列：利用用户历史行为序列（点击、购买等）
//   - 注意力机制：用 Local Activation Unit 计算候选物品与每条历史行为的相关性
//   - 兴趣提取：按相关性加权聚合历史行为，得到随候选变化的用户兴趣表示
//
// 模型结构完全由特征列驱动：
//   1. 每个特征列一个输入槽位；Sparse/VarLenSparse 各一张 embedding 表
//   2. Dense 输入拼成一个向量，Sparse embedding 摊平后拼成另一个向量
//   3. 每对 (候选特征, 序列特征) 过一次注意力池化，得到一个兴趣向量
//   4. 三路拼接后进 DNN，最后一层单元 + sigmoid 输出点击概率
//
// 所有槽位、表和层都由 NewDIN 构建并由模型独占持有，没有全局图状态。
type DIN struct {
	columns             []core.FeatureColumn
	behaviorFeatures    []string
	behaviorSeqFeatures []string

	sparse []core.SparseFeat
	dense  []core.DenseFeat

	slots      map[string]InputSlot
	embeddings map[string]*layers.Embedding

	// pooling[i] 对应第 i 个行为通道 (behaviorFeatures[i], behaviorSeqFeatures[i])
	pooling []*layers.AttentionPooling

	hidden []*layers.Dense
	out    *layers.Dense

	inputDim int
}

// NewDIN 构建 DIN 模型。
//
// 参数：
//   - columns: 全量特征列
//   - behaviorFeatures: 候选物品特征名列表（必须是 Sparse 列）
//   - behaviorSeqFeatures: 行为序列特征名列表（必须是 VarLenSparse 列），
//     与 behaviorFeatures 按位置配对，embedding_dim 必须一致
//
// 任何 schema 不一致（未声明的特征名、变体不符、配对长度不等）都会
// 立即返回 SCHEMA_MISMATCH，绝不静默跳过。
func NewDIN(columns []core.FeatureColumn, behaviorFeatures, behaviorSeqFeatures []string, cfg *DINConfig) (*DIN, error) {
	if cfg == nil {
		cfg = &DINConfig{}
	}
	if err := core.ValidateColumns(columns); err != nil {
		return nil, err
	}
	if len(behaviorFeatures) == 0 || len(behaviorFeatures) != len(behaviorSeqFeatures) {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeSchemaMismatch,
			fmt.Sprintf("din: behavior feature list (%d) and behavior seq feature list (%d) must be non-empty and equal length",
				len(behaviorFeatures), len(behaviorSeqFeatures)))
	}

	m := &DIN{
		columns:             columns,
		behaviorFeatures:    behaviorFeatures,
		behaviorSeqFeatures: behaviorSeqFeatures,
		slots:               make(map[string]InputSlot, len(columns)),
		embeddings:          make(map[string]*layers.Embedding),
	}
	m.sparse, m.dense, _ = core.PartitionColumns(columns)

	rng := rand.New(rand.NewSource(cfg.Seed))

	// 1. 输入槽位 + embedding 表，按特征列变体穷举分发
	for _, fc := range columns {
		m.slots[fc.FeatureName()] = InputSlot{Name: fc.FeatureName(), Width: fc.SlotWidth()}
		switch c := fc.(type) {
		case core.SparseFeat:
			m.embeddings[c.Name] = layers.NewEmbedding(c.Name, c.VocabularySize, c.EmbeddingDim, false, rng)
		case core.VarLenSparseFeat:
			// 序列表多一行：第 0 行是 padding 保留行，恒零且可被掩码识别
			m.embeddings[c.Name] = layers.NewEmbedding(c.Name, c.VocabularySize+1, c.EmbeddingDim, true, rng)
		case core.DenseFeat:
			// 数值特征直接进网络，没有 embedding 表
		}
	}

	// 2. 行为通道校验 + 注意力池化层
	for i := range behaviorFeatures {
		cand, err := core.ColumnByName(columns, behaviorFeatures[i])
		if err != nil {
			return nil, err
		}
		candCol, ok := cand.(core.SparseFeat)
		if !ok {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeSchemaMismatch,
				fmt.Sprintf("din: behavior feature %q must be a sparse feature, got %T", behaviorFeatures[i], cand))
		}
		seq, err := core.ColumnByName(columns, behaviorSeqFeatures[i])
		if err != nil {
			return nil, err
		}
		seqCol, ok := seq.(core.VarLenSparseFeat)
		if !ok {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeSchemaMismatch,
				fmt.Sprintf("din: behavior seq feature %q must be a varlen sparse feature, got %T", behaviorSeqFeatures[i], seq))
		}
		if candCol.EmbeddingDim != seqCol.EmbeddingDim {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeSchemaMismatch,
				fmt.Sprintf("din: behavior pair (%q, %q) embedding dims differ: %d vs %d",
					candCol.Name, seqCol.Name, candCol.EmbeddingDim, seqCol.EmbeddingDim))
		}
		pool, err := layers.NewAttentionPooling(seqCol.EmbeddingDim, cfg.AttentionHidden, cfg.Activation, rng)
		if err != nil {
			return nil, err
		}
		m.pooling = append(m.pooling, pool)
	}

	// 3. DNN 输入宽度：dense 维度 + sparse embedding 维度 + 各通道兴趣向量维度
	for _, c := range m.dense {
		m.inputDim += c.Dimension
	}
	for _, c := range m.sparse {
		m.inputDim += c.EmbeddingDim
	}
	for _, p := range m.pooling {
		m.inputDim += p.Unit.Dim
	}

	// 4. 输出侧 DNN + 单元打分头
	hiddenUnits := cfg.DNNHidden
	if hiddenUnits == nil {
		hiddenUnits = DefaultDNNHidden
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

func (m *DIN) Name() string { return "din" }

// Columns 返回模型声明的特征列。
func (m *DIN) Columns() []core.FeatureColumn { return m.columns }

// InputSlots 返回按名索引的输入槽位。
func (m *DIN) InputSlots() map[string]InputSlot { return m.slots }

// EmbeddingTable 按特征名取 embedding 表，未声明的特征名返回 SCHEMA_MISMATCH。
func (m *DIN) EmbeddingTable(name string) (*layers.Embedding, error) {
	e, ok := m.embeddings[name]
	if !ok {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeSchemaMismatch,
			fmt.Sprintf("din: no embedding table for feature %q", name))
	}
	return e, nil
}

// PredictBatch 对一个命名批次打分，返回每个样本的点击概率。
// 批次形状在前向之前整体校验，缺列或宽度不符立即失败。
func (m *DIN) PredictBatch(ctx context.Context, batch *core.Batch) ([]float64, error) {
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

// TrainStep 对一个 minibatch 做一次"前向 + 反向 + 参数更新"，
// 返回该批次的平均二元交叉熵。梯度按样本数平均。
func (m *DIN) TrainStep(batch *core.Batch, labels []float64, lr float64) (float64, error) {
	if err := batch.Validate(m.columns); err != nil {
		return 0, err
	}
	if len(labels) != batch.Size {
		return 0, core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("din: %d labels for batch of %d", len(labels), batch.Size))
	}
	n := float64(batch.Size)
	loss := 0.0
	for i := 0; i < batch.Size; i++ {
		c, err := m.forwardRow(batch, i)
		if err != nil {
			return 0, err
		}
		loss += bceLoss(c.prob, labels[i])
		// sigmoid + BCE 的 logit 梯度：p - y，除以 n 得到批平均
		m.backwardRow(c, (c.prob-labels[i])/n)
	}
	m.step(lr)
	return loss / n, nil
}

// SetTraining 切换训练/推理模式（只影响 Dice 的滑动统计量更新）。
func (m *DIN) SetTraining(training bool) {
	for _, d := range m.hidden {
		if dice, ok := d.Act.(*layers.Dice); ok {
			dice.SetTraining(training)
		}
	}
	for _, p := range m.pooling {
		p.Unit.SetTraining(training)
	}
}

// rowCache 保存单个样本一次前向的全部中间量，供反向使用。
type rowCache struct {
	denseVals []float64

	// sparse 特征：embedding 下标与在 DNN 输入里的段位置
	sparseIdx []int

	channels []*channelCache

	input []float64
	xs    [][]float64 // 每个 DNN 层（含打分头）的输入
	zs    [][]float64 // 对应预激活
	logit float64
	prob  float64
}

type channelCache struct {
	queryIdx int
	seqIdx   []int
	query    []float64
	keys     [][]float64
	mask     []bool
	pooled   []float64
}

func (m *DIN) forwardRow(batch *core.Batch, row int) (*rowCache, error) {
	c := &rowCache{}

	// dense 输入向量
	var denseParts [][]float64
	for _, fc := range m.dense {
		rows, err := batch.Column(fc.Name)
		if err != nil {
			return nil, err
		}
		denseParts = append(denseParts, rows[row])
	}
	if len(denseParts) > 0 {
		v, err := Concat(denseParts)
		if err != nil {
			return nil, err
		}
		c.denseVals = v
	}

	// sparse embedding 向量（摊平拼接）
	var sparseParts [][]float64
	for _, fc := range m.sparse {
		rows, err := batch.Column(fc.Name)
		if err != nil {
			return nil, err
		}
		idx, ok := asIndex(rows[row][0])
		if !ok {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("din: sparse feature %q row %d: %v is not a valid category index", fc.Name, row, rows[row][0]))
		}
		emb, err := m.embeddings[fc.Name].Lookup(idx)
		if err != nil {
			return nil, err
		}
		c.sparseIdx = append(c.sparseIdx, idx)
		sparseParts = append(sparseParts, emb)
	}

	// 行为通道：候选 embedding x 序列注意力池化
	var pooledParts [][]float64
	for i := range m.behaviorFeatures {
		ch, err := m.forwardChannel(batch, row, i)
		if err != nil {
			return nil, err
		}
		c.channels = append(c.channels, ch)
		pooledParts = append(pooledParts, ch.pooled)
	}

	// 三路拼接；Dense/Sparse 可能为空，但行为通道至少一个
	groups := make([][]float64, 0, 3)
	if len(c.denseVals) > 0 {
		groups = append(groups, c.denseVals)
	}
	if len(sparseParts) > 0 {
		sv, err := Concat(sparseParts)
		if err != nil {
			return nil, err
		}
		groups = append(groups, sv)
	}
	pv, err := Concat(pooledParts)
	if err != nil {
		return nil, err
	}
	groups = append(groups, pv)

	c.input, err = Concat(groups)
	if err != nil {
		return nil, err
	}

	// DNN + 打分头
	cur := c.input
	for _, d := range m.hidden {
		c.xs = append(c.xs, cur)
		y, z := d.Forward(cur)
		c.zs = append(c.zs, z)
		cur = y
	}
	c.xs = append(c.xs, cur)
	y, z := m.out.Forward(cur)
	c.zs = append(c.zs, z)
	c.logit = y[0]
	c.prob = layers.Sigmoid(c.logit)
	return c, nil
}

func (m *DIN) forwardChannel(batch *core.Batch, row, i int) (*channelCache, error) {
	candName := m.behaviorFeatures[i]
	seqName := m.behaviorSeqFeatures[i]

	candRows, err := batch.Column(candName)
	if err != nil {
		return nil, err
	}
	queryIdx, ok := asIndex(candRows[row][0])
	if !ok {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("din: behavior feature %q row %d: %v is not a valid category index", candName, row, candRows[row][0]))
	}
	query, err := m.embeddings[candName].Lookup(queryIdx)
	if err != nil {
		return nil, err
	}

	seqRows, err := batch.Column(seqName)
	if err != nil {
		return nil, err
	}
	seqIdx := make([]int, len(seqRows[row]))
	for t, v := range seqRows[row] {
		idx, ok := asIndex(v)
		if !ok {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("din: behavior seq feature %q row %d position %d: %v is not a valid category index", seqName, row, t, v))
		}
		seqIdx[t] = idx
	}
	keys, mask, err := m.embeddings[seqName].LookupSequence(seqIdx)
	if err != nil {
		return nil, err
	}

	pooled, err := m.pooling[i].Forward(query, keys, mask)
	if err != nil {
		return nil, err
	}
	return &channelCache{
		queryIdx: queryIdx,
		seqIdx:   seqIdx,
		query:    query,
		keys:     keys,
		mask:     mask,
		pooled:   pooled,
	}, nil
}

// backwardRow 把 logit 梯度反向传播到所有参数与 embedding 行。
func (m *DIN) backwardRow(c *rowCache, dLogit float64) {
	last := len(c.xs) - 1
	g := m.out.Backward(c.xs[last], c.zs[last], []float64{dLogit})
	for l := len(m.hidden) - 1; l >= 0; l-- {
		g = m.hidden[l].Backward(c.xs[l], c.zs[l], g)
	}

	// 按拼接顺序切分输入梯度：dense（丢弃，输入是数据）-> sparse -> 行为通道
	off := len(c.denseVals)
	for i, fc := range m.sparse {
		m.embeddings[fc.Name].Accumulate(c.sparseIdx[i], g[off:off+fc.EmbeddingDim])
		off += fc.EmbeddingDim
	}
	for i, ch := range c.channels {
		dim := m.pooling[i].Unit.Dim
		dQuery, dKeys, err := m.pooling[i].Backward(ch.query, ch.keys, ch.mask, g[off:off+dim])
		if err != nil {
			// 前向已经过形状校验，这里不可能失败
			panic(err)
		}
		m.embeddings[m.behaviorFeatures[i]].Accumulate(ch.queryIdx, dQuery)
		seqTable := m.embeddings[m.behaviorSeqFeatures[i]]
		for t, idx := range ch.seqIdx {
			// padding 位置（下标 0）在表内被忽略
			seqTable.Accumulate(idx, dKeys[t])
		}
		off += dim
	}
}

func (m *DIN) step(lr float64) {
	for _, e := range m.embeddings {
		e.Step(lr)
	}
	for _, p := range m.pooling {
		p.Step(lr)
	}
	for _, d := range m.hidden {
		d.Step(lr)
	}
	m.out.Step(lr)
}

// bceLoss 是带夹逼的二元交叉熵。
func bceLoss(p, y float64) float64 {
	const eps = 1e-7
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

var _ BatchRanker = (*DIN)(nil)
