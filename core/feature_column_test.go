package core

import "testing"

func TestValidateColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []FeatureColumn
		wantErr bool
	}{
		{
			name: "valid mixed schema",
			columns: []FeatureColumn{
				SparseFeat{Name: "user_id", VocabularySize: 100, EmbeddingDim: 8},
				DenseFeat{Name: "hour", Dimension: 1},
				VarLenSparseFeat{Name: "hist", VocabularySize: 500, EmbeddingDim: 8, MaxLen: 50},
			},
		},
		{
			name:    "empty schema",
			columns: nil,
			wantErr: true,
		},
		{
			name: "empty feature name",
			columns: []FeatureColumn{
				SparseFeat{Name: "", VocabularySize: 100, EmbeddingDim: 8},
			},
			wantErr: true,
		},
		{
			name: "duplicate feature name",
			columns: []FeatureColumn{
				SparseFeat{Name: "user_id", VocabularySize: 100, EmbeddingDim: 8},
				DenseFeat{Name: "user_id", Dimension: 1},
			},
			wantErr: true,
		},
		{
			name: "sparse with zero vocabulary",
			columns: []FeatureColumn{
				SparseFeat{Name: "user_id", VocabularySize: 0, EmbeddingDim: 8},
			},
			wantErr: true,
		},
		{
			name: "dense with zero dimension",
			columns: []FeatureColumn{
				DenseFeat{Name: "hour", Dimension: 0},
			},
			wantErr: true,
		},
		{
			name: "varlen with zero maxlen",
			columns: []FeatureColumn{
				VarLenSparseFeat{Name: "hist", VocabularySize: 500, EmbeddingDim: 8, MaxLen: 0},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumns(tt.columns)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !IsSchemaMismatch(err) {
					t.Errorf("error = %v, want SCHEMA_MISMATCH", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateColumns() error = %v", err)
			}
		})
	}
}

func TestSlotWidth(t *testing.T) {
	tests := []struct {
		name   string
		column FeatureColumn
		want   int
	}{
		{"sparse is one slot", SparseFeat{Name: "a", VocabularySize: 10, EmbeddingDim: 4}, 1},
		{"dense is its dimension", DenseFeat{Name: "b", Dimension: 3}, 3},
		{"varlen is maxlen", VarLenSparseFeat{Name: "c", VocabularySize: 10, EmbeddingDim: 4, MaxLen: 50}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.column.SlotWidth(); got != tt.want {
				t.Errorf("SlotWidth() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestColumnByName(t *testing.T) {
	columns := []FeatureColumn{
		SparseFeat{Name: "user_id", VocabularySize: 100, EmbeddingDim: 8},
		DenseFeat{Name: "hour", Dimension: 1},
	}

	fc, err := ColumnByName(columns, "hour")
	if err != nil {
		t.Fatalf("ColumnByName error = %v", err)
	}
	if fc.FeatureName() != "hour" {
		t.Errorf("FeatureName() = %q, want hour", fc.FeatureName())
	}

	if _, err := ColumnByName(columns, "missing"); !IsSchemaMismatch(err) {
		t.Errorf("missing column: error = %v, want SCHEMA_MISMATCH", err)
	}
}

func TestPartitionColumns(t *testing.T) {
	sparse, dense, varlen := PartitionColumns([]FeatureColumn{
		SparseFeat{Name: "a", VocabularySize: 10, EmbeddingDim: 4},
		DenseFeat{Name: "b", Dimension: 2},
		VarLenSparseFeat{Name: "c", VocabularySize: 10, EmbeddingDim: 4, MaxLen: 5},
		SparseFeat{Name: "d", VocabularySize: 20, EmbeddingDim: 4},
	})

	if len(sparse) != 2 || sparse[0].Name != "a" || sparse[1].Name != "d" {
		t.Errorf("sparse = %v, want [a d]", sparse)
	}
	if len(dense) != 1 || dense[0].Name != "b" {
		t.Errorf("dense = %v, want [b]", dense)
	}
	if len(varlen) != 1 || varlen[0].Name != "c" {
		t.Errorf("varlen = %v, want [c]", varlen)
	}
}
