package model

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/deepctr/core"
)

func dinTestColumns() []core.FeatureColumn {
	return []core.FeatureColumn{
		core.SparseFeat{Name: "user_id", VocabularySize: 100, EmbeddingDim: 8},
		core.SparseFeat{Name: "item_id", VocabularySize: 500, EmbeddingDim: 8},
		core.VarLenSparseFeat{Name: "hist_item_id", VocabularySize: 500, EmbeddingDim: 8, MaxLen: 5},
		core.DenseFeat{Name: "hour", Dimension: 1},
	}
}

func dinTestBatch(t *testing.T) *core.Batch {
	t.Helper()
	b := core.NewBatch(4)
	for name, rows := range map[string][][]float64{
		"user_id": {{3}, {7}, {7}, {0}},
		"item_id": {{42}, {42}, {301}, {499}},
		"hist_item_id": {
			{11, 42, 301, 0, 0},
			{5, 0, 0, 0, 0},
			{1, 2, 3, 4, 5},
			{0, 0, 0, 0, 0}, // empty history
		},
		"hour": {{0.5}, {0.1}, {0.9}, {0.0}},
	} {
		if err := b.Set(name, rows); err != nil {
			t.Fatalf("Set(%q) error = %v", name, err)
		}
	}
	return b
}

func TestNewDINSchemaErrors(t *testing.T) {
	columns := dinTestColumns()

	tests := []struct {
		name      string
		behaviors []string
		seqs      []string
	}{
		{name: "empty behavior lists", behaviors: nil, seqs: nil},
		{name: "unequal list lengths", behaviors: []string{"item_id"}, seqs: nil},
		{name: "unknown behavior feature", behaviors: []string{"missing"}, seqs: []string{"hist_item_id"}},
		{name: "unknown seq feature", behaviors: []string{"item_id"}, seqs: []string{"missing"}},
		{name: "behavior feature not sparse", behaviors: []string{"hour"}, seqs: []string{"hist_item_id"}},
		{name: "seq feature not varlen", behaviors: []string{"item_id"}, seqs: []string{"user_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDIN(columns, tt.behaviors, tt.seqs, nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !core.IsSchemaMismatch(err) {
				t.Errorf("error = %v, want SCHEMA_MISMATCH", err)
			}
		})
	}
}

func TestNewDINEmbeddingDimMismatch(t *testing.T) {
	columns := []core.FeatureColumn{
		core.SparseFeat{Name: "item_id", VocabularySize: 500, EmbeddingDim: 8},
		core.VarLenSparseFeat{Name: "hist_item_id", VocabularySize: 500, EmbeddingDim: 16, MaxLen: 5},
	}
	_, err := NewDIN(columns, []string{"item_id"}, []string{"hist_item_id"}, nil)
	if !core.IsSchemaMismatch(err) {
		t.Errorf("dim mismatch: error = %v, want SCHEMA_MISMATCH", err)
	}
}

func TestDINEmbeddingTables(t *testing.T) {
	m, err := NewDIN(dinTestColumns(), []string{"item_id"}, []string{"hist_item_id"}, nil)
	if err != nil {
		t.Fatalf("NewDIN error = %v", err)
	}

	// Sparse table: rows = vocabulary size
	e, err := m.EmbeddingTable("item_id")
	if err != nil {
		t.Fatalf("EmbeddingTable(item_id) error = %v", err)
	}
	if e.Rows != 500 {
		t.Errorf("item_id rows = %d, want 500", e.Rows)
	}

	// Sequence table: one extra reserved padding row
	e, err = m.EmbeddingTable("hist_item_id")
	if err != nil {
		t.Fatalf("EmbeddingTable(hist_item_id) error = %v", err)
	}
	if e.Rows != 501 {
		t.Errorf("hist_item_id rows = %d, want 501 (vocab + padding row)", e.Rows)
	}
	for _, v := range e.W[0] {
		if v != 0 {
			t.Fatalf("padding row = %v, want zeros", e.W[0])
		}
	}

	// Dense features have no embedding table
	if _, err := m.EmbeddingTable("hour"); !core.IsSchemaMismatch(err) {
		t.Errorf("EmbeddingTable(hour) error = %v, want SCHEMA_MISMATCH", err)
	}
}

func TestDINPredictBatch(t *testing.T) {
	for _, activation := range []string{"prelu", "dice"} {
		t.Run(activation, func(t *testing.T) {
			m, err := NewDIN(dinTestColumns(), []string{"item_id"}, []string{"hist_item_id"},
				&DINConfig{Activation: activation, Seed: 42})
			if err != nil {
				t.Fatalf("NewDIN error = %v", err)
			}

			probs, err := m.PredictBatch(context.Background(), dinTestBatch(t))
			if err != nil {
				t.Fatalf("PredictBatch error = %v", err)
			}
			if len(probs) != 4 {
				t.Fatalf("len(probs) = %d, want 4", len(probs))
			}
			for i, p := range probs {
				if math.IsNaN(p) || math.IsInf(p, 0) {
					t.Errorf("probs[%d] = %v, want finite", i, p)
				}
				if p <= 0 || p >= 1 {
					t.Errorf("probs[%d] = %v, want in (0, 1)", i, p)
				}
			}
		})
	}
}

func TestDINPredictDeterministic(t *testing.T) {
	build := func() *DIN {
		m, err := NewDIN(dinTestColumns(), []string{"item_id"}, []string{"hist_item_id"},
			&DINConfig{Seed: 42})
		if err != nil {
			t.Fatalf("NewDIN error = %v", err)
		}
		return m
	}

	p1, err := build().PredictBatch(context.Background(), dinTestBatch(t))
	if err != nil {
		t.Fatalf("PredictBatch error = %v", err)
	}
	p2, err := build().PredictBatch(context.Background(), dinTestBatch(t))
	if err != nil {
		t.Fatalf("PredictBatch error = %v", err)
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Errorf("same seed diverged at %d: %v vs %v", i, p1[i], p2[i])
		}
	}
}

func TestDINPredictValidation(t *testing.T) {
	m, err := NewDIN(dinTestColumns(), []string{"item_id"}, []string{"hist_item_id"}, nil)
	if err != nil {
		t.Fatalf("NewDIN error = %v", err)
	}

	// Missing column
	b := core.NewBatch(1)
	if _, err := m.PredictBatch(context.Background(), b); !core.IsShapeMismatch(err) {
		t.Errorf("empty batch: error = %v, want SHAPE_MISMATCH", err)
	}

	// Fractional category index
	b = dinTestBatch(t)
	if err := b.SetScalars("item_id", []float64{1.5, 2, 3, 4}); err != nil {
		t.Fatalf("SetScalars error = %v", err)
	}
	if _, err := m.PredictBatch(context.Background(), b); !core.IsInvalidInput(err) {
		t.Errorf("fractional index: error = %v, want INVALID_INPUT", err)
	}

	// Negative category index
	b = dinTestBatch(t)
	if err := b.SetScalars("user_id", []float64{-1, 2, 3, 4}); err != nil {
		t.Fatalf("SetScalars error = %v", err)
	}
	if _, err := m.PredictBatch(context.Background(), b); !core.IsInvalidInput(err) {
		t.Errorf("negative index: error = %v, want INVALID_INPUT", err)
	}
}

func TestDINPredictCanceledContext(t *testing.T) {
	m, err := NewDIN(dinTestColumns(), []string{"item_id"}, []string{"hist_item_id"}, nil)
	if err != nil {
		t.Fatalf("NewDIN error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.PredictBatch(ctx, dinTestBatch(t)); err == nil {
		t.Error("canceled context expected error, got nil")
	}
}

func TestDINTrainStep(t *testing.T) {
	m, err := NewDIN(dinTestColumns(), []string{"item_id"}, []string{"hist_item_id"},
		&DINConfig{Seed: 42})
	if err != nil {
		t.Fatalf("NewDIN error = %v", err)
	}

	batch := dinTestBatch(t)
	labels := []float64{1, 0, 1, 0}

	first, err := m.TrainStep(batch, labels, 0.01)
	if err != nil {
		t.Fatalf("TrainStep error = %v", err)
	}
	var last float64
	for i := 0; i < 50; i++ {
		last, err = m.TrainStep(batch, labels, 0.01)
		if err != nil {
			t.Fatalf("TrainStep error = %v", err)
		}
	}
	if !(last < first) {
		t.Errorf("loss did not decrease: first=%v last=%v", first, last)
	}

	// Label count must match the batch
	if _, err := m.TrainStep(batch, []float64{1}, 0.01); !core.IsShapeMismatch(err) {
		t.Errorf("label mismatch: error = %v, want SHAPE_MISMATCH", err)
	}
}
