// Package accuracy scores recognized text against an expected transcription.
//
// It is used to judge whether a preprocessing mode improved recognition on a
// known image: run detection, then compare the artifact text with what the
// image is known to contain.
package accuracy

import (
	"strings"

	"github.com/arbovm/levenshtein"
)

// Score compares recognized text with the expected text.
type Score struct {
	ExpectedText  string `json:"expected_text"`
	ExtractedText string `json:"extracted_text"`

	// CharDistance is the rune-level edit distance after normalization.
	CharDistance int `json:"char_distance"`

	// WordDistance is the word-level edit distance after normalization.
	WordDistance int `json:"word_distance"`

	// CER and WER are the distances divided by the expected length, in runes
	// and words. Both can exceed 1 when the extracted text is much longer.
	CER float64 `json:"character_error_rate"`
	WER float64 `json:"word_error_rate"`

	// MatchScore is 1 - CER clamped to [0, 1].
	MatchScore float64 `json:"match_score"`

	Exact bool `json:"exact"`
}

// Normalize collapses every run of whitespace, including the newlines that
// separate regions, into a single space and trims the ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Compare scores extracted against expected. Both strings are normalized
// first. An empty expected text scores 0 against an empty extraction and
// 1 against anything else.
func Compare(expected, extracted string) Score {
	exp := Normalize(expected)
	got := Normalize(extracted)

	s := Score{
		ExpectedText:  exp,
		ExtractedText: got,
		CharDistance:  levenshtein.Distance(exp, got),
		WordDistance:  wordDistance(strings.Fields(exp), strings.Fields(got)),
		Exact:         exp == got,
	}

	s.CER = rate(s.CharDistance, len([]rune(exp)))
	s.WER = rate(s.WordDistance, len(strings.Fields(exp)))

	s.MatchScore = 1 - s.CER
	if s.MatchScore < 0 {
		s.MatchScore = 0
	}
	return s
}

func rate(distance, length int) float64 {
	if length == 0 {
		if distance == 0 {
			return 0
		}
		return 1
	}
	return float64(distance) / float64(length)
}

// wordDistance is the edit distance between two word sequences, counting
// each inserted, deleted or substituted word as one.
func wordDistance(a, b []string) int {
	ids := make(map[string]int)
	encode := func(words []string) []int {
		out := make([]int, len(words))
		for i, w := range words {
			id, ok := ids[w]
			if !ok {
				id = len(ids)
				ids[w] = id
			}
			out[i] = id
		}
		return out
	}
	return editDistance(encode(a), encode(b))
}

// editDistance is the Levenshtein distance over int sequences, using two
// rows of the table. A shared prefix and suffix are skipped first.
func editDistance(a, b []int) int {
	for len(a) > 0 && len(b) > 0 && a[0] == b[0] {
		a, b = a[1:], b[1:]
	}
	for len(a) > 0 && len(b) > 0 && a[len(a)-1] == b[len(b)-1] {
		a, b = a[:len(a)-1], b[:len(b)-1]
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
