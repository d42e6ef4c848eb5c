package embeddings

import (
	"context"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// Dimensions is the length of every vector produced by Embed.
const Dimensions = 384

// Feature weights. Token features are scaled by 1/sqrt(position+1); the
// length and bigram features are not.
const (
	weightToken    = 2.0
	weightSemantic = 1.5
	weightContext  = 1.0
	weightPrefix   = 0.5
	weightLength   = 0.3
	weightBigram   = 0.8

	prefixLen = 3
)

// Embed maps text to a deterministic 384-dimensional unit vector built from
// hashed lexical features. Text with no usable tokens yields the zero vector.
func Embed(text string) []float32 {
	acc := make([]float64, Dimensions)

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return make([]float32, Dimensions)
	}

	for i, tok := range tokens {
		w := 1.0 / math.Sqrt(float64(i+1))

		acc[bucket(tok)] += w * weightToken
		acc[bucket(tok+"_semantic")] += w * weightSemantic
		acc[bucket(tok+"_context")] += w * weightContext
		acc[bucket(prefix(tok, prefixLen))] += w * weightPrefix
		acc[bucket(tok+"_len_"+strconv.Itoa(utf16Len(tok)))] += weightLength
	}

	for i := 0; i+1 < len(tokens); i++ {
		acc[bucket(tokens[i]+"_"+tokens[i+1])] += weightBigram
	}

	NormalizeL2(acc)

	out := make([]float32, Dimensions)
	for i, v := range acc {
		out[i] = float32(v)
	}

	return out
}

// Tokenize lowercases text, replaces everything except ASCII letters, digits,
// underscore and whitespace with a space, and returns the whitespace-separated
// tokens longer than one character.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}

		return ' '
	}, strings.ToLower(text))

	fields := strings.Fields(cleaned)
	tokens := fields[:0]

	for _, f := range fields {
		if utf16Len(f) > 1 {
			tokens = append(tokens, f)
		}
	}

	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// hash is the 31-multiplier rolling hash over UTF-16 code units with 32-bit
// signed wraparound, returned as its absolute value.
func hash(s string) int64 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(u)
	}

	// Widen before negating so math.MinInt32 stays positive.
	v := int64(h)
	if v < 0 {
		v = -v
	}

	return v
}

func bucket(s string) int {
	return int(hash(s) % Dimensions)
}

// prefix returns the first n UTF-16 code units of s.
func prefix(s string, n int) string {
	units := utf16.Encode([]rune(s))
	if len(units) <= n {
		return s
	}

	return string(utf16.Decode(units[:n]))
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}

	return n
}

// LexicalClient exposes Embed through the context-aware embedding client
// interface used by services.
type LexicalClient struct{}

// NewLexicalClient returns a client backed by Embed.
func NewLexicalClient() *LexicalClient {
	return &LexicalClient{}
}

// CreateEmbedding returns Embed(input). It only fails when ctx is done.
func (*LexicalClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Embed(input), nil
}
