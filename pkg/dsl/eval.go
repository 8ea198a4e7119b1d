package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义样本过滤可用的变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("label", cel.DynType),
		cel.Variable("features", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// SampleFilter 是训练样本过滤器，使用 CEL (Common Expression Language) 实现。
// 表达式编译一次，可对任意多行样本求值。
//
// 可用变量：
//   - label: 样本标签（float64）
//   - features: 标量特征字典（map[string]float64，只含宽度为 1 的列）
//
// 示例：
//   - `label == 1.0` → 只保留正样本
//   - `features.hour >= 6.0 && features.hour <= 23.0` → 按小时过滤
//   - `label == 1.0 || features.position < 10.0` → 正样本 + 头部曝光
type SampleFilter struct {
	expr string
	prg  cel.Program
}

// NewSampleFilter 编译一个样本过滤表达式，表达式必须产生布尔值。
func NewSampleFilter(expr string) (*SampleFilter, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("init cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program filter %q: %w", expr, err)
	}
	return &SampleFilter{expr: expr, prg: prg}, nil
}

// Keep 判断一行样本是否保留。
func (f *SampleFilter) Keep(label float64, features map[string]float64) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{
		"label":    label,
		"features": features,
	})
	if err != nil {
		return false, fmt.Errorf("eval filter %q: %w", f.expr, err)
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q: expression result is %T, want bool", f.expr, out.Value())
	}
	return keep, nil
}
