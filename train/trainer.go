package train

import (
	"context"
	"math/rand"

	"github.com/rushteam/deepctr/core"
	"github.com/rushteam/deepctr/model"
)

// TrainableModel 是可被 Trainer 驱动的模型：批打分 + 单步梯度更新。
// DIN 与 DNN 都实现此接口。
type TrainableModel interface {
	model.BatchRanker

	// TrainStep 对一个 minibatch 做一次前向 + 反向 + 参数更新，返回批平均损失
	TrainStep(batch *core.Batch, labels []float64, lr float64) (float64, error)
}

// Trainer 是 minibatch SGD 训练循环：
// 逐轮打散训练集、按批更新参数、在验证集上评估 logloss 与 AUC。
type Trainer struct {
	Model TrainableModel

	// LearningRate 默认 0.01
	LearningRate float64

	// BatchSize 默认 64
	BatchSize int

	// Epochs 默认 5
	Epochs int

	// ValidationSplit 是验证集比例，默认 0.2；0 表示不留验证集
	ValidationSplit float64

	// Seed 控制打散顺序
	Seed int64

	// EvalWorkers 是验证集打分的并行度，默认串行
	EvalWorkers int
}

// EpochStats 是一轮训练的统计。
type EpochStats struct {
	Epoch     int
	TrainLoss float64
	ValLoss   float64
	ValAUC    float64
}

// History 是整个训练过程的逐轮统计。
type History struct {
	Epochs []EpochStats
}

// Fit 执行完整训练循环。数据集会先整体打散再切分验证集。
func (t *Trainer) Fit(ctx context.Context, ds *Dataset) (*History, error) {
	if t.Model == nil {
		return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeInvalidInput,
			"trainer: model is nil")
	}
	if ds == nil || ds.Len() == 0 {
		return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeInvalidInput,
			"trainer: empty dataset")
	}

	lr := t.LearningRate
	if lr <= 0 {
		lr = 0.01
	}
	batchSize := t.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}
	epochs := t.Epochs
	if epochs <= 0 {
		epochs = 5
	}
	valSplit := t.ValidationSplit
	if valSplit == 0 {
		valSplit = 0.2
	}
	if valSplit < 0 {
		valSplit = 0
	}

	rng := rand.New(rand.NewSource(t.Seed))
	ds.Shuffle(rng)
	trainSet, valSet := ds.Split(valSplit)

	setTraining(t.Model, true)
	defer setTraining(t.Model, false)

	history := &History{}
	for epoch := 1; epoch <= epochs; epoch++ {
		trainSet.Shuffle(rng)

		n := trainSet.Len()
		lossSum := 0.0
		for lo := 0; lo < n; lo += batchSize {
			if err := ctx.Err(); err != nil {
				return history, err
			}
			hi := lo + batchSize
			if hi > n {
				hi = n
			}
			batch, labels := trainSet.Batch(lo, hi)
			loss, err := t.Model.TrainStep(batch, labels, lr)
			if err != nil {
				return history, err
			}
			lossSum += loss * float64(hi-lo)
		}

		stats := EpochStats{
			Epoch:     epoch,
			TrainLoss: lossSum / float64(n),
		}
		if valSet.Len() > 0 {
			setTraining(t.Model, false)
			probs, err := Evaluate(ctx, t.Model, valSet, t.EvalWorkers)
			setTraining(t.Model, true)
			if err != nil {
				return history, err
			}
			stats.ValLoss = LogLoss(probs, valSet.Labels)
			stats.ValAUC = AUC(probs, valSet.Labels)
		}
		history.Epochs = append(history.Epochs, stats)
	}
	return history, nil
}

// setTraining 切换模型训练/推理模式（模型未实现时为空操作）。
func setTraining(m TrainableModel, training bool) {
	if s, ok := m.(interface{ SetTraining(bool) }); ok {
		s.SetTraining(training)
	}
}
