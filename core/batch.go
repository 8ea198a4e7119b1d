package core

import "fmt"

// Batch 是模型的命名输入：特征名 -> 矩形的一批取值。
//
// 取值约定（与特征列变体一一对应）：
//   - SparseFeat：每行 1 个值，类别下标（以 float64 承载的非负整数）
//   - DenseFeat：每行 Dimension 个数值
//   - VarLenSparseFeat：每行 MaxLen 个类别下标，右侧以保留下标 0 padding
//
// Batch 只做数据承载，不做转换；形状校验统一走 Validate。
type Batch struct {
	Size    int
	Columns map[string][][]float64
}

// NewBatch 创建一个固定行数的空批次。
func NewBatch(size int) *Batch {
	return &Batch{
		Size:    size,
		Columns: make(map[string][][]float64),
	}
}

// Set 写入一列，要求行数与批次一致且矩形。
func (b *Batch) Set(name string, rows [][]float64) error {
	if len(rows) != b.Size {
		return NewDomainError(ModuleCore, ErrorCodeShapeMismatch,
			fmt.Sprintf("batch column %q: got %d rows, want %d", name, len(rows), b.Size))
	}
	if len(rows) > 0 {
		width := len(rows[0])
		for i, row := range rows {
			if len(row) != width {
				return NewDomainError(ModuleCore, ErrorCodeShapeMismatch,
					fmt.Sprintf("batch column %q: row %d has width %d, want %d", name, i, len(row), width))
			}
		}
	}
	b.Columns[name] = rows
	return nil
}

// SetScalars 以标量列写入（Sparse 下标或一维 Dense 的便捷形式）。
func (b *Batch) SetScalars(name string, values []float64) error {
	rows := make([][]float64, len(values))
	for i, v := range values {
		rows[i] = []float64{v}
	}
	return b.Set(name, rows)
}

// Column 取出一列，不存在返回 SHAPE_MISMATCH。
func (b *Batch) Column(name string) ([][]float64, error) {
	rows, ok := b.Columns[name]
	if !ok {
		return nil, NewDomainError(ModuleCore, ErrorCodeShapeMismatch,
			fmt.Sprintf("batch: missing required column %q", name))
	}
	return rows, nil
}

// Validate 按特征列声明校验批次形状：每个声明的列必须存在、行数一致、
// 列宽等于 SlotWidth。缺列或宽度不符都是致命错误，在打分/训练前一次性暴露。
func (b *Batch) Validate(columns []FeatureColumn) error {
	for _, fc := range columns {
		rows, ok := b.Columns[fc.FeatureName()]
		if !ok {
			return NewDomainError(ModuleCore, ErrorCodeShapeMismatch,
				fmt.Sprintf("batch: missing required column %q", fc.FeatureName()))
		}
		if len(rows) != b.Size {
			return NewDomainError(ModuleCore, ErrorCodeShapeMismatch,
				fmt.Sprintf("batch column %q: got %d rows, want %d", fc.FeatureName(), len(rows), b.Size))
		}
		want := fc.SlotWidth()
		for i, row := range rows {
			if len(row) != want {
				return NewDomainError(ModuleCore, ErrorCodeShapeMismatch,
					fmt.Sprintf("batch column %q: row %d has width %d, want %d", fc.FeatureName(), i, len(row), want))
			}
		}
	}
	return nil
}
