package train

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/deepctr/model"
)

// LogLoss 计算平均二元交叉熵，概率做 [eps, 1-eps] 夹逼。
func LogLoss(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	const eps = 1e-7
	sum := 0.0
	for i, p := range probs {
		if p < eps {
			p = eps
		}
		if p > 1-eps {
			p = 1 - eps
		}
		y := labels[i]
		sum += -(y*math.Log(p) + (1-y)*math.Log(1-p))
	}
	return sum / float64(len(probs))
}

// AUC 计算 ROC 曲线下面积（基于秩的实现，相同分数取平均秩）。
// 只有单一类别时返回 0.5。
func AUC(probs, labels []float64) float64 {
	n := len(probs)
	pos := 0
	for _, y := range labels {
		if y > 0.5 {
			pos++
		}
	}
	neg := n - pos
	if pos == 0 || neg == 0 {
		return 0.5
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return probs[order[a]] < probs[order[b]]
	})

	// 同分并列取平均秩
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && probs[order[j]] == probs[order[i]] {
			j++
		}
		avg := float64(i+j+1) / 2.0 // 秩从 1 开始
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	rankSum := 0.0
	for i, y := range labels {
		if y > 0.5 {
			rankSum += ranks[i]
		}
	}
	return (rankSum - float64(pos)*float64(pos+1)/2.0) / (float64(pos) * float64(neg))
}

// Evaluate 对整个数据集打分，按块并行（workers <= 1 时串行）。
// PredictBatch 只读模型参数，训练停止后并发打分是安全的。
func Evaluate(ctx context.Context, m model.BatchRanker, ds *Dataset, workers int) ([]float64, error) {
	n := ds.Len()
	if n == 0 {
		return nil, nil
	}
	probs := make([]float64, n)
	if workers <= 1 {
		batch, _ := ds.Batch(0, n)
		out, err := m.PredictBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		copy(probs, out)
		return probs, nil
	}

	chunk := (n + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			batch, _ := ds.Batch(lo, hi)
			out, err := m.PredictBatch(gctx, batch)
			if err != nil {
				return err
			}
			copy(probs[lo:hi], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return probs, nil
}
