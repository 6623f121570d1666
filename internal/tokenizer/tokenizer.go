// Package tokenizer splits text into word and punctuation tokens and maps
// them to ids from a frequency-ranked vocabulary.
package tokenizer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Reserved tokens occupy the first two ids of every vocabulary.
const (
	UnknownToken = "<unk>"
	PaddingToken = "<pad>"

	UnknownID = 0
	PaddingID = 1
)

// A token is a run of letters, digits and underscores, or a single
// character that is neither a word character nor whitespace.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+|[^\p{L}\p{N}_\s]`)

// Split lowercases text and returns its tokens in order.
func Split(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Vocabulary maps tokens to ids. Id 0 is <unk>, id 1 is <pad>, and the
// remaining ids follow token frequency rank.
type Vocabulary struct {
	words []string
	ids   map[string]int
}

// NewVocabulary builds a vocabulary from ranked words, most frequent first.
// The reserved tokens are prepended and must not appear in ranked.
func NewVocabulary(ranked []string) (*Vocabulary, error) {
	v := &Vocabulary{
		words: make([]string, 0, len(ranked)+2),
		ids:   make(map[string]int, len(ranked)+2),
	}
	for _, w := range append([]string{UnknownToken, PaddingToken}, ranked...) {
		if _, dup := v.ids[w]; dup {
			return nil, fmt.Errorf("duplicate vocabulary entry %q", w)
		}
		v.ids[w] = len(v.words)
		v.words = append(v.words, w)
	}
	return v, nil
}

// BuildVocabulary counts tokens across samples and keeps the size-2 most
// frequent, reserving two ids for <unk> and <pad>. Ties keep the order in
// which tokens were first seen.
func BuildVocabulary(samples []string, size int) *Vocabulary {
	counts := make(map[string]int)
	var order []string
	for _, sample := range samples {
		for _, tok := range Split(sample) {
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	keep := size - 2
	if keep < 0 {
		keep = 0
	}
	if keep < len(order) {
		order = order[:keep]
	}

	// Split never yields the reserved tokens, so this cannot fail.
	v, _ := NewVocabulary(order)
	return v
}

// Len returns the number of entries including the reserved tokens.
func (v *Vocabulary) Len() int {
	return len(v.words)
}

// ID returns the id for a token, or UnknownID.
func (v *Vocabulary) ID(token string) int {
	if id, ok := v.ids[token]; ok {
		return id
	}
	return UnknownID
}

// Word returns the token for an id.
func (v *Vocabulary) Word(id int) (string, bool) {
	if id < 0 || id >= len(v.words) {
		return "", false
	}
	return v.words[id], true
}

// Tokenize splits text and maps each token to its id.
func (v *Vocabulary) Tokenize(text string) ([]string, []int) {
	tokens := Split(text)
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = v.ID(tok)
	}
	return tokens, ids
}

// Words returns the ranked entries after the reserved tokens.
func (v *Vocabulary) Words() []string {
	out := make([]string, len(v.words)-2)
	copy(out, v.words[2:])
	return out
}

// MarshalJSON encodes the ranked words without the reserved tokens.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Words())
}

// UnmarshalJSON decodes a vocabulary written by MarshalJSON.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var ranked []string
	if err := json.Unmarshal(data, &ranked); err != nil {
		return err
	}
	decoded, err := NewVocabulary(ranked)
	if err != nil {
		return err
	}
	*v = *decoded
	return nil
}
