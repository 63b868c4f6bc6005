package game

import (
	"fmt"
	"math/rand"
)

// Score counts exact matches (right symbol, right place) and colour
// matches (right symbol, wrong place). Each secret position is matched at
// most once: exact matches are struck from both sides first, then every
// remaining guess symbol strikes the first equal remaining secret symbol.
func Score(secret, guess []int) (exact, colour int) {
	n := len(secret)
	if len(guess) < n {
		n = len(guess)
	}

	const struck = -1
	s := append([]int(nil), secret[:n]...)
	g := append([]int(nil), guess[:n]...)

	for i := 0; i < n; i++ {
		if g[i] == s[i] {
			exact++
			s[i] = struck
			g[i] = struck - 1
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if g[i] == s[j] {
				colour++
				s[j] = struck
				break
			}
		}
	}
	return exact, colour
}

// RandomSecret draws length symbols uniformly from 1..colors
func RandomSecret(rng *rand.Rand, length, colors int) []int {
	secret := make([]int, length)
	for i := range secret {
		secret[i] = rng.Intn(colors) + 1
	}
	return secret
}

// FormatSequence renders symbols as "1 4 2 6"
func FormatSequence(seq []int) string {
	s := ""
	for i, v := range seq {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprint(v)
	}
	return s
}
