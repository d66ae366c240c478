package vector

import (
	"math"
	"path/filepath"
	"testing"
)

func TestCosine(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := Cosine(a, a); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical vectors should score 1, got %f", got)
	}
	if got := Cosine(a, b); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors should score 0, got %f", got)
	}
	c := []float32{-1, 0}
	if got := Cosine(a, c); math.Abs(got+1.0) > 1e-9 {
		t.Errorf("opposite vectors should score -1, got %f", got)
	}
	if got := Cosine(a, []float32{0, 0}); got != 0 {
		t.Errorf("zero vector should score 0, got %f", got)
	}
	if got := Cosine(a, []float32{1, 2, 3}); got != 0 {
		t.Errorf("dimension mismatch should score 0, got %f", got)
	}
}

func TestCosineNorm(t *testing.T) {
	if CosineNorm(-1) != 0 {
		t.Error("cos -1 should map to 0")
	}
	if CosineNorm(1) != 1 {
		t.Error("cos 1 should map to 1")
	}
	if CosineNorm(0) != 0.5 {
		t.Error("cos 0 should map to 0.5")
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	rows := [][]float32{{0.1, 0.2, 0.3}, {-1, 0, 1}}
	if err := WriteMatrix(path, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadMatrix(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	for i := range rows {
		for j := range rows[i] {
			if got[i][j] != rows[i][j] {
				t.Errorf("row %d col %d: expected %f, got %f", i, j, rows[i][j], got[i][j])
			}
		}
	}
}

func TestWriteMatrixRejectsRagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	if err := WriteMatrix(path, [][]float32{{1, 2}, {1}}); err == nil {
		t.Error("ragged matrix should be rejected")
	}
	if err := WriteMatrix(path, nil); err == nil {
		t.Error("empty matrix should be rejected")
	}
}
