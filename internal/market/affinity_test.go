package market

import "testing"

func TestGenerateAffinity_Shape(t *testing.T) {
	a := GenerateAffinity(42, 6)

	if a.Size() != 6 {
		t.Fatalf("expected 6 rows, got %d", a.Size())
	}
	for i := 0; i < 6; i++ {
		if a[i][i] != 1 {
			t.Errorf("diagonal [%d][%d] = %v, want 1", i, i, a[i][i])
		}
		for j := 0; j < 6; j++ {
			if a[i][j] != a[j][i] {
				t.Errorf("matrix not symmetric at [%d][%d]", i, j)
			}
			if a[i][j] < 0 || a[i][j] > 1 {
				t.Errorf("score [%d][%d] = %v out of [0,1]", i, j, a[i][j])
			}
		}
	}
}

func TestGenerateAffinity_Deterministic(t *testing.T) {
	a := GenerateAffinity(7, 4)
	b := GenerateAffinity(7, 4)
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("same seed produced different tables at [%d][%d]", i, j)
			}
		}
	}
}

func TestAffinity_Between(t *testing.T) {
	a := AffinityFromRows([][]float64{
		{1, 0.7},
		{0.7, 1},
	})
	if got := a.Between(0, 1); got != 0.7 {
		t.Errorf("expected 0.7, got %v", got)
	}
	if got := a.Between(0, 5); got != 0 {
		t.Errorf("out of range must score 0, got %v", got)
	}
	if got := a.Between(-1, 0); got != 0 {
		t.Errorf("negative index must score 0, got %v", got)
	}
}
