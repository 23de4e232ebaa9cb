package systems

import "testing"

func TestUniformWanderRangeAndSeed(t *testing.T) {
	a := NewUniformWander(42)
	b := NewUniformWander(42)
	for i := 0; i < 1000; i++ {
		va := a.Sample(uint32(i), 0)
		vb := b.Sample(uint32(i), 0)
		if va != vb {
			t.Fatalf("sample %d differs between equal seeds: %v vs %v", i, va, vb)
		}
		if va.X < -1 || va.X >= 1 || va.Y < -1 || va.Y >= 1 {
			t.Fatalf("sample %v outside [-1, 1)", va)
		}
	}
}

func TestNoiseWander(t *testing.T) {
	n := NewNoiseWander(7, 0.37, 0.5)

	v := n.Sample(3, 1.25)
	if v != n.Sample(3, 1.25) {
		t.Error("noise wander is not deterministic in (id, t)")
	}
	if v == n.Sample(4, 1.25) {
		t.Error("different agents share a wander sample")
	}

	for id := uint32(0); id < 50; id++ {
		for step := 0; step < 50; step++ {
			s := n.Sample(id, float64(step)*0.1)
			if s.X < -1 || s.X >= 1 || s.Y < -1 || s.Y >= 1 {
				t.Fatalf("sample %v outside [-1, 1)", s)
			}
		}
	}
}

func TestSigned(t *testing.T) {
	if got := signed(0); got != -1 {
		t.Errorf("signed(0) = %v, want -1", got)
	}
	if got := signed(1); got >= 1 {
		t.Errorf("signed(1) = %v, want < 1", got)
	}
	if got := signed(0.5); got != 0 {
		t.Errorf("signed(0.5) = %v, want 0", got)
	}
}
