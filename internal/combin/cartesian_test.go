package combin

import (
	"reflect"
	"testing"
)

func TestProductOrderLastFastest(t *testing.T) {
	got := All([]int{2, 3})
	want := [][]int{
		{0, 0}, {0, 1}, {0, 2},
		{1, 0}, {1, 1}, {1, 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Product order = %v, want %v", got, want)
	}
}

func TestProductEmptyDimension(t *testing.T) {
	got := All([]int{2, 0, 3})
	if len(got) != 0 {
		t.Fatalf("expected no tuples when any dimension is 0, got %v", got)
	}
}

func TestProductNoDimensions(t *testing.T) {
	got := All(nil)
	if len(got) != 1 || len(got[0]) != 0 {
		t.Fatalf("expected exactly one empty tuple, got %v", got)
	}
}

func TestCountMatchesProduct(t *testing.T) {
	sizes := []int{2, 3, 4}
	if Count(sizes) != len(All(sizes)) {
		t.Fatalf("Count(%v) = %d, want %d", sizes, Count(sizes), len(All(sizes)))
	}
}

func TestProductEarlyStop(t *testing.T) {
	n := 0
	Product([]int{3, 3}, func(index []int) bool {
		n++
		return n < 2
	})
	if n != 2 {
		t.Fatalf("expected enumeration to stop after yield returns false, got %d calls", n)
	}
}
