package db

import "testing"

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3}
	out, err := BytesToVector(VectorToBytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d values, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("index %d: expected %v, got %v", i, in[i], out[i])
		}
	}
}

func TestBytesToVector_BadLength(t *testing.T) {
	if _, err := BytesToVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated data")
	}
	v, err := BytesToVector(nil)
	if err != nil || len(v) != 0 {
		t.Fatalf("expected empty vector, got %v, %v", v, err)
	}
}
