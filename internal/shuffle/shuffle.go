// Package shuffle randomizes presentation order without touching its input.
package shuffle

import "math/rand"

// Option is an answer option paired with its correctness-bearing position.
type Option struct {
	Text          string `json:"text"`
	OriginalIndex int    `json:"-"`
}

// Shuffle returns a uniformly random permutation of items as a new slice.
func Shuffle[T any](items []T) []T {
	return ShuffleWith(nil, items)
}

// ShuffleWith is Shuffle with an explicit random source; nil uses the global one.
func ShuffleWith[T any](r *rand.Rand, items []T) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)

	intn := rand.Intn
	if r != nil {
		intn = r.Intn
	}
	// Fisher-Yates
	for i := len(shuffled) - 1; i > 0; i-- {
		j := intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// Perm returns a random permutation of [0, n).
func Perm(n int) []int {
	if n <= 0 {
		return []int{}
	}
	identity := make([]int, n)
	for i := range identity {
		identity[i] = i
	}
	return Shuffle(identity)
}

// Sample shuffles items and keeps at most n of them.
func Sample[T any](items []T, n int) []T {
	shuffled := Shuffle(items)
	if n < 0 || n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// Options pairs each text with its index and shuffles the pairs.
func Options(texts []string) []Option {
	pairs := make([]Option, len(texts))
	for i, text := range texts {
		pairs[i] = Option{Text: text, OriginalIndex: i}
	}
	return Shuffle(pairs)
}
