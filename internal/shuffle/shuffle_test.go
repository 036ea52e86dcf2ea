package shuffle

import (
	"math/rand"
	"sort"
	"testing"
)

func TestShuffleIsPermutation(t *testing.T) {
	input := []int{5, 3, 3, 9, 1, 0, 7}
	original := append([]int(nil), input...)

	for round := 0; round < 50; round++ {
		out := Shuffle(input)
		if len(out) != len(input) {
			t.Fatalf("expected length %d, got %d", len(input), len(out))
		}
		got := append([]int(nil), out...)
		want := append([]int(nil), original...)
		sort.Ints(got)
		sort.Ints(want)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("multiset changed: %v vs %v", out, original)
			}
		}
	}
	for i := range input {
		if input[i] != original[i] {
			t.Fatalf("input mutated: %v", input)
		}
	}
}

func TestShuffleSmallInputs(t *testing.T) {
	if out := Shuffle([]string{}); len(out) != 0 {
		t.Fatalf("expected empty output, got %v", out)
	}
	if out := Shuffle([]string{"only"}); len(out) != 1 || out[0] != "only" {
		t.Fatalf("expected single element unchanged, got %v", out)
	}
}

func TestShuffleWithSeededSourceIsDeterministic(t *testing.T) {
	a := ShuffleWith(rand.New(rand.NewSource(7)), []int{1, 2, 3, 4, 5, 6})
	b := ShuffleWith(rand.New(rand.NewSource(7)), []int{1, 2, 3, 4, 5, 6})
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced %v and %v", a, b)
		}
	}
}

func TestShuffleCoversPermutations(t *testing.T) {
	seen := map[[3]int]int{}
	for i := 0; i < 3000; i++ {
		out := Shuffle([]int{0, 1, 2})
		seen[[3]int{out[0], out[1], out[2]}]++
	}
	if len(seen) != 6 {
		t.Fatalf("expected all 6 permutations, saw %d", len(seen))
	}
	for perm, count := range seen {
		if count < 300 {
			t.Fatalf("permutation %v underrepresented: %d", perm, count)
		}
	}
}

func TestOptionsKeepOriginalIndex(t *testing.T) {
	texts := []string{"A", "B", "C", "D"}
	opts := Options(texts)
	if len(opts) != len(texts) {
		t.Fatalf("expected %d options, got %d", len(texts), len(opts))
	}
	for _, opt := range opts {
		if texts[opt.OriginalIndex] != opt.Text {
			t.Fatalf("option %q mapped to wrong index %d", opt.Text, opt.OriginalIndex)
		}
	}
}

func TestSampleLimits(t *testing.T) {
	items := []string{"q1", "q2", "q3"}
	if got := Sample(items, 2); len(got) != 2 {
		t.Fatalf("expected 2 items, got %v", got)
	}
	if got := Sample(items, 10); len(got) != 3 {
		t.Fatalf("expected all items when n exceeds length, got %v", got)
	}
	if got := Perm(4); len(got) != 4 {
		t.Fatalf("expected perm of 4, got %v", got)
	}
}
