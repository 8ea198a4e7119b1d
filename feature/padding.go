package feature

// PadIndex 是 VarLenSparse 序列的保留 padding 下标。
// embedding 表的第 0 行恒为零向量，注意力池化按"下标是否为 0"判定有效位。
const PadIndex = 0

// PadSequence 把一条变长下标序列整形到固定长度 maxlen：
//   - 不足时右侧补 PadIndex（post padding）
//   - 超长时保留前 maxlen 个、截断尾部（post truncating）
//
// 返回以 float64 承载的下标行，可直接作为批次的一行。
func PadSequence(seq []int64, maxlen int) []float64 {
	row := make([]float64, maxlen)
	n := len(seq)
	if n > maxlen {
		n = maxlen
	}
	for i := 0; i < n; i++ {
		row[i] = float64(seq[i])
	}
	return row
}
