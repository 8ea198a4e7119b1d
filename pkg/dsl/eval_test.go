package dsl

import "testing"

func TestSampleFilterKeep(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		label    float64
		features map[string]float64
		want     bool
	}{
		{
			name:  "positive samples only, kept",
			expr:  `label == 1.0`,
			label: 1.0,
			want:  true,
		},
		{
			name:  "positive samples only, dropped",
			expr:  `label == 1.0`,
			label: 0.0,
			want:  false,
		},
		{
			name:     "feature range",
			expr:     `features.hour >= 6.0 && features.hour <= 23.0`,
			features: map[string]float64{"hour": 12.0},
			want:     true,
		},
		{
			name:     "feature range, out of band",
			expr:     `features.hour >= 6.0 && features.hour <= 23.0`,
			features: map[string]float64{"hour": 3.0},
			want:     false,
		},
		{
			name:     "label or feature",
			expr:     `label == 1.0 || features.position < 10.0`,
			label:    0.0,
			features: map[string]float64{"position": 5.0},
			want:     true,
		},
		{
			name:     "bracket access",
			expr:     `features["hour"] < 12.0`,
			features: map[string]float64{"hour": 3.0},
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewSampleFilter(tt.expr)
			if err != nil {
				t.Fatalf("NewSampleFilter(%q) error = %v", tt.expr, err)
			}
			got, err := f.Keep(tt.label, tt.features)
			if err != nil {
				t.Fatalf("Keep() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Keep() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleFilterCompileError(t *testing.T) {
	if _, err := NewSampleFilter(`label ==`); err == nil {
		t.Error("malformed expression expected error, got nil")
	}
}

func TestSampleFilterNonBoolResult(t *testing.T) {
	f, err := NewSampleFilter(`label + 1.0`)
	if err != nil {
		t.Fatalf("NewSampleFilter error = %v", err)
	}
	if _, err := f.Keep(1.0, nil); err == nil {
		t.Error("non-bool expression expected error at eval, got nil")
	}
}
