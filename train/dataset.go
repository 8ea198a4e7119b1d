package train

import (
	"fmt"
	"math/rand"

	"github.com/rushteam/deepctr/core"
	"github.com/rushteam/deepctr/pkg/dsl"
)

// Dataset 是训练数据的内存承载：命名特征列 + 标签，行对齐。
// 列的形状约定与 core.Batch 相同（Sparse 下标、Dense 数值、padding 过的序列）。
type Dataset struct {
	Columns map[string][][]float64
	Labels  []float64
}

// NewDataset 创建数据集，校验各列行数与标签数一致。
func NewDataset(columns map[string][][]float64, labels []float64) (*Dataset, error) {
	for name, rows := range columns {
		if len(rows) != len(labels) {
			return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeShapeMismatch,
				fmt.Sprintf("dataset: column %q has %d rows, labels %d", name, len(rows), len(labels)))
		}
	}
	return &Dataset{Columns: columns, Labels: labels}, nil
}

// Len 返回样本数。
func (d *Dataset) Len() int { return len(d.Labels) }

// Shuffle 对所有列与标签做同一置换的原地打散。
func (d *Dataset) Shuffle(rng *rand.Rand) {
	n := d.Len()
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		d.Labels[i], d.Labels[j] = d.Labels[j], d.Labels[i]
		for _, rows := range d.Columns {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
}

// Split 按比例切出尾部作为验证集（调用前通常先 Shuffle）。
// frac 不在 (0,1) 时验证集为空。
func (d *Dataset) Split(frac float64) (trainSet, valSet *Dataset) {
	n := d.Len()
	cut := n
	if frac > 0 && frac < 1 {
		cut = n - int(float64(n)*frac)
	}
	return d.slice(0, cut), d.slice(cut, n)
}

// Batch 把 [lo, hi) 行转成一个打分批次。
func (d *Dataset) Batch(lo, hi int) (*core.Batch, []float64) {
	b := core.NewBatch(hi - lo)
	for name, rows := range d.Columns {
		b.Columns[name] = rows[lo:hi]
	}
	return b, d.Labels[lo:hi]
}

// Filter 用 CEL 表达式过滤样本，返回保留行组成的新数据集。
// 表达式可引用 label 与标量特征（宽度为 1 的列），例如
// `label == 1.0 || features.position < 10.0`。
func (d *Dataset) Filter(expr string) (*Dataset, error) {
	filter, err := dsl.NewSampleFilter(expr)
	if err != nil {
		return nil, err
	}

	// 只把标量列暴露给表达式，序列列不参与过滤
	scalarCols := make([]string, 0, len(d.Columns))
	for name, rows := range d.Columns {
		if len(rows) == 0 || len(rows[0]) == 1 {
			scalarCols = append(scalarCols, name)
		}
	}

	keepIdx := make([]int, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		features := make(map[string]float64, len(scalarCols))
		for _, name := range scalarCols {
			features[name] = d.Columns[name][i][0]
		}
		keep, err := filter.Keep(d.Labels[i], features)
		if err != nil {
			return nil, err
		}
		if keep {
			keepIdx = append(keepIdx, i)
		}
	}
	return d.gather(keepIdx), nil
}

func (d *Dataset) slice(lo, hi int) *Dataset {
	out := &Dataset{
		Columns: make(map[string][][]float64, len(d.Columns)),
		Labels:  d.Labels[lo:hi],
	}
	for name, rows := range d.Columns {
		out.Columns[name] = rows[lo:hi]
	}
	return out
}

func (d *Dataset) gather(idx []int) *Dataset {
	out := &Dataset{
		Columns: make(map[string][][]float64, len(d.Columns)),
		Labels:  make([]float64, len(idx)),
	}
	for name := range d.Columns {
		out.Columns[name] = make([][]float64, len(idx))
	}
	for i, j := range idx {
		out.Labels[i] = d.Labels[j]
		for name, rows := range d.Columns {
			out.Columns[name][i] = rows[j]
		}
	}
	return out
}
