package train

import (
	"math/rand"
	"testing"
)

func testDataset(t *testing.T, n int) *Dataset {
	t.Helper()
	items := make([][]float64, n)
	hours := make([][]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		items[i] = []float64{float64(i)}
		hours[i] = []float64{float64(i % 24)}
		labels[i] = float64(i % 2)
	}
	ds, err := NewDataset(map[string][][]float64{
		"item_id": items,
		"hour":    hours,
	}, labels)
	if err != nil {
		t.Fatalf("NewDataset error = %v", err)
	}
	return ds
}

func TestNewDatasetRowMismatch(t *testing.T) {
	_, err := NewDataset(map[string][][]float64{
		"item_id": {{1}, {2}},
	}, []float64{1})
	if err == nil {
		t.Error("row/label mismatch expected error, got nil")
	}
}

func TestDatasetShuffleKeepsAlignment(t *testing.T) {
	ds := testDataset(t, 50)
	ds.Shuffle(rand.New(rand.NewSource(3)))

	// item_id i was built with label i%2; the pairing must survive shuffling
	for i := 0; i < ds.Len(); i++ {
		item := int(ds.Columns["item_id"][i][0])
		if ds.Labels[i] != float64(item%2) {
			t.Fatalf("row %d: item %d paired with label %v", i, item, ds.Labels[i])
		}
		if ds.Columns["hour"][i][0] != float64(item%24) {
			t.Fatalf("row %d: item %d paired with hour %v", i, item, ds.Columns["hour"][i][0])
		}
	}

	// The order must actually change for 50 rows
	moved := false
	for i := 0; i < ds.Len(); i++ {
		if int(ds.Columns["item_id"][i][0]) != i {
			moved = true
			break
		}
	}
	if !moved {
		t.Error("Shuffle left all rows in place")
	}
}

func TestDatasetSplit(t *testing.T) {
	ds := testDataset(t, 10)

	trainSet, valSet := ds.Split(0.2)
	if trainSet.Len() != 8 || valSet.Len() != 2 {
		t.Errorf("Split(0.2) = %d/%d, want 8/2", trainSet.Len(), valSet.Len())
	}

	trainSet, valSet = ds.Split(0)
	if trainSet.Len() != 10 || valSet.Len() != 0 {
		t.Errorf("Split(0) = %d/%d, want 10/0", trainSet.Len(), valSet.Len())
	}
}

func TestDatasetBatch(t *testing.T) {
	ds := testDataset(t, 10)
	b, labels := ds.Batch(3, 7)

	if b.Size != 4 || len(labels) != 4 {
		t.Fatalf("Batch(3,7): size=%d labels=%d, want 4", b.Size, len(labels))
	}
	rows, err := b.Column("item_id")
	if err != nil {
		t.Fatalf("Column error = %v", err)
	}
	if rows[0][0] != 3 || rows[3][0] != 6 {
		t.Errorf("batch rows = %v..%v, want 3..6", rows[0][0], rows[3][0])
	}
}

func TestDatasetFilter(t *testing.T) {
	ds := testDataset(t, 48)

	kept, err := ds.Filter(`label == 1.0`)
	if err != nil {
		t.Fatalf("Filter error = %v", err)
	}
	if kept.Len() != 24 {
		t.Errorf("positives kept = %d, want 24", kept.Len())
	}
	for i := 0; i < kept.Len(); i++ {
		if kept.Labels[i] != 1.0 {
			t.Fatalf("row %d label = %v, want 1", i, kept.Labels[i])
		}
	}

	kept, err = ds.Filter(`features.hour < 6.0`)
	if err != nil {
		t.Fatalf("Filter error = %v", err)
	}
	for i := 0; i < kept.Len(); i++ {
		if kept.Columns["hour"][i][0] >= 6 {
			t.Fatalf("row %d hour = %v, want < 6", i, kept.Columns["hour"][i][0])
		}
	}

	if _, err := ds.Filter(`label ==`); err == nil {
		t.Error("malformed filter expected error, got nil")
	}
}
