package fusion

import "strings"

// Similarity computes Jaccard word-trigram similarity between two
// normalized texts: |A ∩ B| / |A ∪ B| over the sets of contiguous 3-word
// sequences. Texts with fewer than three tokens fall back to their token
// sets, so short utterances still compare meaningfully.
//
// Two empty texts are identical (1.0); one empty text matches nothing (0.0).
func Similarity(a, b string) float64 {
	setA := trigramSet(strings.Fields(a))
	setB := trigramSet(strings.Fields(b))

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

// trigramSet returns the set of contiguous 3-word sequences, or the token
// set itself when fewer than three tokens exist.
func trigramSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{})
	if len(tokens) < 3 {
		for _, t := range tokens {
			set[t] = struct{}{}
		}
		return set
	}

	for i := 0; i+3 <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+3], " ")] = struct{}{}
	}
	return set
}
