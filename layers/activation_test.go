package layers

import (
	"math"
	"testing"
)

func TestNewActivation(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		wantName string
		wantErr  bool
	}{
		{name: "default is prelu", kind: "", wantName: "prelu"},
		{name: "prelu", kind: "prelu", wantName: "prelu"},
		{name: "dice", kind: "dice", wantName: "dice"},
		{name: "unknown kind", kind: "relu6", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act, err := NewActivation(tt.kind, 4)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewActivation(%q) expected error, got nil", tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewActivation(%q) error = %v", tt.kind, err)
			}
			if act.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", act.Name(), tt.wantName)
			}
		})
	}
}

func TestPReLUForward(t *testing.T) {
	p := NewPReLU(3)

	got := p.Forward([]float64{2.0, 0.0, -4.0})
	want := []float64{2.0, 0.0, -1.0} // alpha=0.25

	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("Forward[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPReLUBackward(t *testing.T) {
	p := NewPReLU(2)

	z := []float64{3.0, -2.0}
	dy := []float64{1.0, 1.0}
	dz := p.Backward(z, dy)

	if dz[0] != 1.0 {
		t.Errorf("dz[0] = %v, want 1.0 (identity for z >= 0)", dz[0])
	}
	if dz[1] != 0.25 {
		t.Errorf("dz[1] = %v, want 0.25 (alpha for z < 0)", dz[1])
	}

	// dAlpha accumulates dy*z only on the negative side
	p.Step(1.0)
	if p.Alpha[0] != 0.25 {
		t.Errorf("Alpha[0] = %v, want unchanged 0.25", p.Alpha[0])
	}
	// Alpha[1] -= lr * (dy*z) = 0.25 - 1.0*(-2.0) = 2.25
	if math.Abs(p.Alpha[1]-2.25) > 1e-12 {
		t.Errorf("Alpha[1] = %v, want 2.25 after step", p.Alpha[1])
	}
}

func TestDiceForwardInference(t *testing.T) {
	d := NewDice(1)

	// Fresh Dice in inference mode: alpha=0, mean=0, var=1,
	// so y = sigmoid(z) * z.
	for _, z := range []float64{-2.0, -0.5, 0.0, 0.5, 2.0} {
		got := d.Forward([]float64{z})[0]
		want := z / (1.0 + math.Exp(-z))
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("Forward(%v) = %v, want %v", z, got, want)
		}
	}
}

func TestDiceRunningStats(t *testing.T) {
	d := NewDice(1)

	// Inference mode keeps stats frozen
	d.Forward([]float64{10.0})
	if d.Mean[0] != 0 || d.Var[0] != 1.0 {
		t.Fatalf("inference Forward changed stats: mean=%v var=%v", d.Mean[0], d.Var[0])
	}

	// Training mode drifts the mean toward the data
	d.SetTraining(true)
	for i := 0; i < 100; i++ {
		d.Forward([]float64{10.0})
	}
	if d.Mean[0] <= 1.0 {
		t.Errorf("training mean = %v, want drift toward 10", d.Mean[0])
	}

	// Back to inference: frozen again
	d.SetTraining(false)
	mean := d.Mean[0]
	d.Forward([]float64{-10.0})
	if d.Mean[0] != mean {
		t.Errorf("inference Forward changed mean: %v -> %v", mean, d.Mean[0])
	}
}

func TestDiceBackwardMatchesNumericGradient(t *testing.T) {
	d := NewDice(1)
	d.Alpha[0] = 0.3
	d.Mean[0] = 0.2
	d.Var[0] = 2.0

	// Stats are constants in inference mode, so f is smooth in z.
	f := func(z float64) float64 {
		return d.Forward([]float64{z})[0]
	}

	const h = 1e-6
	for _, z := range []float64{-1.5, -0.2, 0.0, 0.7, 2.1} {
		want := (f(z+h) - f(z-h)) / (2 * h)
		got := d.Backward([]float64{z}, []float64{1.0})[0]
		if math.Abs(got-want) > 1e-4 {
			t.Errorf("Backward at z=%v: got %v, numeric %v", z, got, want)
		}
	}
}
