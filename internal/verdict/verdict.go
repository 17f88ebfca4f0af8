package verdict

import (
	"fmt"
	"strings"
	"unicode"
)

// Verdict is the normalized classification of a single commit.
// Its value is one of the two configured vocabulary words, or "ERROR".
type Verdict string

// Error is the verdict for commits that could not be analyzed at all
// (empty model response, transport failure, unreadable diff).
const Error Verdict = "ERROR"

const maxDegradedReasoning = 500

// DegradedMarker prefixes the reasoning whenever the model output did not
// follow the two-line contract and the degraded scan was used instead.
const DegradedMarker = "unrecognized response format"

// EmptyResponseReason is the reasoning attached to an empty model response.
// It is distinct from DegradedMarker so reviewers can tell "no output" apart
// from "output without a recognizable verdict".
const EmptyResponseReason = "empty model response"

// Vocabulary is the pair of words the model is instructed to answer with.
type Vocabulary struct {
	Positive string `json:"positive"`
	Negative string `json:"negative"`
}

// DefaultVocabulary returns the OK/SUSPICIOUS word pair.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{Positive: "OK", Negative: "SUSPICIOUS"}
}

// ParseVocabulary parses a "POSITIVE,NEGATIVE" pair (e.g. "PASS,FAIL").
func ParseVocabulary(s string) (Vocabulary, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Vocabulary{}, fmt.Errorf("invalid vocabulary %q: expected \"POSITIVE,NEGATIVE\"", s)
	}
	v := Vocabulary{
		Positive: strings.TrimSpace(parts[0]),
		Negative: strings.TrimSpace(parts[1]),
	}
	if v.Positive == "" || v.Negative == "" {
		return Vocabulary{}, fmt.Errorf("invalid vocabulary %q: empty word", s)
	}
	if strings.EqualFold(v.Positive, v.Negative) {
		return Vocabulary{}, fmt.Errorf("invalid vocabulary %q: words must differ", s)
	}
	return v, nil
}

// Outcome is the result of normalizing one model response.
type Outcome struct {
	Verdict   Verdict
	Reasoning string
}

// Normalize parses raw model output into a verdict and reasoning.
//
// The preferred (fast) path expects the verdict word alone on the first
// non-empty line, with the reasoning following. When the model does not
// follow that contract, a degraded whole-word scan decides, defaulting to
// the negative verdict: ambiguous output is never treated as a clean pass.
func Normalize(raw string, vocab Vocabulary) Outcome {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Outcome{Verdict: Error, Reasoning: EmptyResponseReason}
	}

	lines := splitLines(text)
	if out, ok := fastPath(lines, vocab); ok {
		return out
	}
	return degradedPath(text, vocab)
}

// splitLines returns the non-empty trimmed lines of text.
func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// fastPath matches the documented contract: the first non-empty line is the
// verdict word, either alone, as "WORD: inline reasoning", or emitted as a
// labeled "LABEL: WORD" pair.
func fastPath(lines []string, vocab Vocabulary) (Outcome, bool) {
	if len(lines) == 0 {
		return Outcome{}, false
	}

	first := lines[0]
	rest := strings.Join(lines[1:], "\n")

	for _, word := range []string{vocab.Positive, vocab.Negative} {
		if first == word {
			return Outcome{Verdict: Verdict(word), Reasoning: orDefault(rest)}, true
		}

		left, right, found := strings.Cut(first, ":")
		if !found {
			continue
		}
		left = strings.TrimSpace(left)
		right = strings.TrimSpace(right)

		// "WORD: the reasoning starts here"
		if left == word {
			reasoning := right
			if rest != "" {
				reasoning = strings.TrimSpace(reasoning + "\n" + rest)
			}
			return Outcome{Verdict: Verdict(word), Reasoning: orDefault(reasoning)}, true
		}
		// "VERDICT: WORD"
		if right == word {
			return Outcome{Verdict: Verdict(word), Reasoning: orDefault(rest)}, true
		}
	}

	return Outcome{}, false
}

// degradedPath scans the whole uppercased text for the vocabulary words.
// Negative-only means negative, positive-only means positive; both present
// or neither present falls through to the conservative negative default.
func degradedPath(text string, vocab Vocabulary) Outcome {
	hasPositive := containsWord(text, vocab.Positive)
	hasNegative := containsWord(text, vocab.Negative)

	verdict := Verdict(vocab.Negative)
	if hasPositive && !hasNegative {
		verdict = Verdict(vocab.Positive)
	}

	reason := text
	if len(reason) > maxDegradedReasoning {
		reason = reason[:maxDegradedReasoning] + "..."
	}
	return Outcome{
		Verdict:   verdict,
		Reasoning: DegradedMarker + ": " + reason,
	}
}

// containsWord reports whether word occurs in text as a whole word,
// case-insensitively.
func containsWord(text, word string) bool {
	word = strings.ToUpper(word)
	fields := strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if f == word {
			return true
		}
	}
	return false
}

func orDefault(reasoning string) string {
	if reasoning == "" {
		return "No reasoning provided"
	}
	return reasoning
}
