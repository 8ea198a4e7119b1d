package layers

import (
	"fmt"
	"math"

	"github.com/rushteam/deepctr/core"
)

// Activation 是带可学习参数的逐元素激活。
//
// 约定：
//   - Forward/Backward 以预激活值 z 为输入，自身不缓存状态
//   - Backward 返回 dL/dz，并把参数梯度累积在内部，由 Step 统一应用
type Activation interface {
	Name() string

	Forward(z []float64) []float64

	// Backward 根据预激活值 z 与上游梯度 dy 计算 dL/dz，同时累积参数梯度
	Backward(z, dy []float64) []float64

	// Step 应用累积的参数梯度并清零
	Step(lr float64)
}

// NewActivation 按名称创建激活，width 是所在层的输出宽度。
// 支持 "prelu" 与 "dice"；空字符串按 prelu 处理。
func NewActivation(kind string, width int) (Activation, error) {
	switch kind {
	case "", "prelu":
		return NewPReLU(width), nil
	case "dice":
		return NewDice(width), nil
	default:
		return nil, core.NewDomainError(core.ModuleLayers, core.ErrorCodeInvalidInput,
			fmt.Sprintf("activation: unknown kind %q (want prelu or dice)", kind))
	}
}

// PReLU 是带可学习负斜率的 ReLU：z >= 0 时输出 z，否则输出 alpha*z。
// alpha 按通道学习，初始化为 0.25。
type PReLU struct {
	Alpha  []float64
	dAlpha []float64
}

func NewPReLU(width int) *PReLU {
	p := &PReLU{
		Alpha:  make([]float64, width),
		dAlpha: make([]float64, width),
	}
	for i := range p.Alpha {
		p.Alpha[i] = 0.25
	}
	return p
}

func (p *PReLU) Name() string { return "prelu" }

func (p *PReLU) Forward(z []float64) []float64 {
	out := make([]float64, len(z))
	for i, v := range z {
		if v >= 0 {
			out[i] = v
		} else {
			out[i] = p.Alpha[i] * v
		}
	}
	return out
}

func (p *PReLU) Backward(z, dy []float64) []float64 {
	dz := make([]float64, len(z))
	for i, v := range z {
		if v >= 0 {
			dz[i] = dy[i]
		} else {
			dz[i] = p.Alpha[i] * dy[i]
			p.dAlpha[i] += dy[i] * v
		}
	}
	return dz
}

func (p *PReLU) Step(lr float64) {
	for i := range p.Alpha {
		p.Alpha[i] -= lr * p.dAlpha[i]
		p.dAlpha[i] = 0
	}
}

// Dice 是 DIN 论文中的数据自适应激活（Data Adaptive Activation）。
//
// 计算过程：
//   1. 对输入做零均值/单位方差归一化（不带可学习平移/缩放，统计量用滑动均值）
//   2. 归一化值过 sigmoid 得到软门控 p ∈ (0,1)
//   3. 混合输出 alpha*(1-p)*z + p*z
//
// 相当于"拐点"随输入分布自适应漂移的平滑版 PReLU。
// 训练模式下 Forward 会更新滑动统计量；推理模式下统计量冻结。
// 反向传播把统计量视作常数，与推理态 BatchNorm 的处理一致。
type Dice struct {
	Alpha  []float64
	dAlpha []float64

	// 滑动统计量（按通道）
	Mean []float64
	Var  []float64

	// Momentum 是滑动统计量的保留系数，默认 0.99
	Momentum float64
	Eps      float64

	training bool
}

func NewDice(width int) *Dice {
	d := &Dice{
		Alpha:    make([]float64, width),
		dAlpha:   make([]float64, width),
		Mean:     make([]float64, width),
		Var:      make([]float64, width),
		Momentum: 0.99,
		Eps:      1e-8,
	}
	for i := range d.Var {
		d.Var[i] = 1.0
	}
	return d
}

func (d *Dice) Name() string { return "dice" }

// SetTraining 切换训练/推理模式，只影响滑动统计量是否更新。
func (d *Dice) SetTraining(training bool) { d.training = training }

func (d *Dice) Forward(z []float64) []float64 {
	if d.training {
		m := d.Momentum
		for i, v := range z {
			d.Mean[i] = m*d.Mean[i] + (1-m)*v
			diff := v - d.Mean[i]
			d.Var[i] = m*d.Var[i] + (1-m)*diff*diff
		}
	}
	out := make([]float64, len(z))
	for i, v := range z {
		p := d.gate(i, v)
		out[i] = d.Alpha[i]*(1-p)*v + p*v
	}
	return out
}

func (d *Dice) Backward(z, dy []float64) []float64 {
	dz := make([]float64, len(z))
	for i, v := range z {
		s := math.Sqrt(d.Var[i] + d.Eps)
		p := d.gate(i, v)
		// y = alpha*(1-p)*z + p*z，统计量视作常数：
		// dy/dz = alpha*(1-p) + p + (1-alpha)*z*p*(1-p)/s
		dz[i] = dy[i] * (d.Alpha[i]*(1-p) + p + (1-d.Alpha[i])*v*p*(1-p)/s)
		d.dAlpha[i] += dy[i] * (1 - p) * v
	}
	return dz
}

func (d *Dice) Step(lr float64) {
	for i := range d.Alpha {
		d.Alpha[i] -= lr * d.dAlpha[i]
		d.dAlpha[i] = 0
	}
}

func (d *Dice) gate(i int, v float64) float64 {
	zn := (v - d.Mean[i]) / math.Sqrt(d.Var[i]+d.Eps)
	return 1.0 / (1.0 + math.Exp(-zn))
}
