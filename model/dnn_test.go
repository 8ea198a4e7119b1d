package model

import (
	"context"
	"testing"

	"github.com/rushteam/deepctr/core"
)

func TestNewDNNRejectsVarLen(t *testing.T) {
	columns := []core.FeatureColumn{
		core.SparseFeat{Name: "item_id", VocabularySize: 100, EmbeddingDim: 8},
		core.VarLenSparseFeat{Name: "hist", VocabularySize: 100, EmbeddingDim: 8, MaxLen: 5},
	}
	if _, err := NewDNN(columns, nil); !core.IsSchemaMismatch(err) {
		t.Errorf("varlen column: error = %v, want SCHEMA_MISMATCH", err)
	}
}

func TestDNNPredictAndTrain(t *testing.T) {
	columns := []core.FeatureColumn{
		core.SparseFeat{Name: "user_id", VocabularySize: 50, EmbeddingDim: 4},
		core.SparseFeat{Name: "item_id", VocabularySize: 100, EmbeddingDim: 4},
		core.DenseFeat{Name: "price", Dimension: 2},
	}
	m, err := NewDNN(columns, &DNNConfig{Hidden: []int{16, 8}, Seed: 42})
	if err != nil {
		t.Fatalf("NewDNN error = %v", err)
	}

	b := core.NewBatch(3)
	if err := b.SetScalars("user_id", []float64{1, 2, 3}); err != nil {
		t.Fatalf("SetScalars error = %v", err)
	}
	if err := b.SetScalars("item_id", []float64{10, 20, 30}); err != nil {
		t.Fatalf("SetScalars error = %v", err)
	}
	if err := b.Set("price", [][]float64{{0.5, 1.0}, {0.1, 0.2}, {0.9, 0.3}}); err != nil {
		t.Fatalf("Set error = %v", err)
	}

	probs, err := m.PredictBatch(context.Background(), b)
	if err != nil {
		t.Fatalf("PredictBatch error = %v", err)
	}
	for i, p := range probs {
		if p <= 0 || p >= 1 {
			t.Errorf("probs[%d] = %v, want in (0, 1)", i, p)
		}
	}

	labels := []float64{1, 0, 1}
	first, err := m.TrainStep(b, labels, 0.05)
	if err != nil {
		t.Fatalf("TrainStep error = %v", err)
	}
	var last float64
	for i := 0; i < 50; i++ {
		last, err = m.TrainStep(b, labels, 0.05)
		if err != nil {
			t.Fatalf("TrainStep error = %v", err)
		}
	}
	if !(last < first) {
		t.Errorf("loss did not decrease: first=%v last=%v", first, last)
	}
}
