package layers

import (
	"math"
	"math/rand"
)

// Trainable 是可训练组件的最小抽象：应用累积梯度并清零。
type Trainable interface {
	Step(lr float64)
}

// Dense 是全连接层：y = act(W*x + b)。
//
// 约定：
//   - 层内只存参数与梯度累积，不缓存前向中间量；
//     前向把预激活 z 一并返回，反向需要 (x, z) 原样传回
//   - Backward 梯度是跨样本累积的，由 Step 统一应用并清零
type Dense struct {
	In, Out int

	W [][]float64 // [Out][In]
	B []float64

	// Act 为 nil 时是纯线性层（如打分头）
	Act Activation

	dW [][]float64
	dB []float64
}

// NewDense 创建全连接层，权重用 Glorot 均匀初始化，偏置置零。
func NewDense(in, out int, act Activation, rng *rand.Rand) *Dense {
	d := &Dense{
		In:  in,
		Out: out,
		W:   make([][]float64, out),
		B:   make([]float64, out),
		Act: act,
		dW:  make([][]float64, out),
		dB:  make([]float64, out),
	}
	limit := math.Sqrt(6.0 / float64(in+out))
	for j := 0; j < out; j++ {
		d.W[j] = make([]float64, in)
		d.dW[j] = make([]float64, in)
		for i := 0; i < in; i++ {
			d.W[j][i] = (rng.Float64()*2 - 1) * limit
		}
	}
	return d
}

// Forward 前向计算，返回激活后输出 y 与预激活 z。
func (d *Dense) Forward(x []float64) (y, z []float64) {
	z = make([]float64, d.Out)
	for j := 0; j < d.Out; j++ {
		sum := d.B[j]
		w := d.W[j]
		for i := 0; i < d.In; i++ {
			sum += w[i] * x[i]
		}
		z[j] = sum
	}
	if d.Act == nil {
		return z, z
	}
	return d.Act.Forward(z), z
}

// Backward 反向传播：x、z 是对应前向调用的输入与预激活，dy 是上游梯度。
// 返回 dL/dx；dW/dB（以及激活参数梯度）在层内累积。
func (d *Dense) Backward(x, z, dy []float64) []float64 {
	dz := dy
	if d.Act != nil {
		dz = d.Act.Backward(z, dy)
	}
	dx := make([]float64, d.In)
	for j := 0; j < d.Out; j++ {
		g := dz[j]
		if g == 0 {
			continue
		}
		d.dB[j] += g
		w := d.W[j]
		dw := d.dW[j]
		for i := 0; i < d.In; i++ {
			dw[i] += g * x[i]
			dx[i] += g * w[i]
		}
	}
	return dx
}

// Step 应用累积梯度（W -= lr*dW）并清零，同时推进激活参数。
func (d *Dense) Step(lr float64) {
	for j := 0; j < d.Out; j++ {
		d.B[j] -= lr * d.dB[j]
		d.dB[j] = 0
		w := d.W[j]
		dw := d.dW[j]
		for i := 0; i < d.In; i++ {
			w[i] -= lr * dw[i]
			dw[i] = 0
		}
	}
	if d.Act != nil {
		d.Act.Step(lr)
	}
}

// Sigmoid 是逻辑压缩函数，打分头用它把 logit 映射到 (0,1)。
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
