package fusion

import "strings"

// creditPhrases are broadcast-credit boilerplate the backend reproduces
// from its training data over music or silence, keyed by normalized form.
// Normalization already strips punctuation and diacritics, so an exact
// match here also catches segments whose only content is the phrase
// dressed in punctuation ("Sous-titrage : Société Radio-Canada.").
var creditPhrases = map[string]struct{}{
	"sous titrage":                                       {},
	"sous titrage st 501":                                {},
	"societe radio canada":                               {},
	"sous titrage societe radio canada":                  {},
	"sous titres realises par la communaute d amara org": {},
	"merci d avoir regarde cette video":                  {},
	"abonnez vous":                                       {},
	"production":                                         {},
	"realisation":                                        {},
	"tres bien":                                          {},
}

// fillerTokens are bare interjections that, alone in a segment, are
// overwhelmingly fabrications on silence rather than genuine speech.
var fillerTokens = map[string]struct{}{
	"merci": {},
	"ok":    {},
	"ah":    {},
	"oh":    {},
	"hum":   {},
	"oui":   {},
}

// Spurious reports whether a segment's text is a known hallucination:
// credit boilerplate, a lone filler word, or a cue that is nothing but a
// bracketed sound effect or music notation.
func Spurious(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	if soundEffectOnly(trimmed) || musicOnly(trimmed) {
		return true
	}

	normalized := Normalize(trimmed)
	if _, ok := creditPhrases[normalized]; ok {
		return true
	}

	tokens := strings.Fields(normalized)
	if len(tokens) == 1 {
		if _, ok := fillerTokens[tokens[0]]; ok {
			return true
		}
	}

	return false
}

// soundEffectOnly matches cues like "[Applaudissements]".
func soundEffectOnly(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")
}

// musicOnly matches cues that are just music notation, like "♪ ... ♪".
func musicOnly(s string) bool {
	r := []rune(s)
	if len(r) < 2 {
		return false
	}
	return isNote(r[0]) && isNote(r[len(r)-1])
}

func isNote(r rune) bool {
	return r == '♪' || r == '♫'
}
