package artifacts

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gonum.org/v1/gonum/mat"
)

const (
	VectorizerTFIDF = "tfidf"
	VectorizerCount = "count"

	NormL2   = "l2"
	NormL1   = "l1"
	NormNone = "none"

	// sklearnTokenPattern is the default token_pattern of scikit-learn text vectorizers.
	sklearnTokenPattern = `(?u)\b\w\w+\b`
	defaultTokenPattern = `[\p{L}\p{N}_]{2,}`
)

// Vectorizer turns free text into a bag-of-words feature vector over a fixed vocabulary.
// token_pattern is RE2 syntax; the scikit-learn default is mapped to a Unicode-aware equivalent.
type Vectorizer struct {
	Kind         string         `json:"kind" yaml:"kind"`
	Lowercase    *bool          `json:"lowercase,omitempty" yaml:"lowercase,omitempty"`
	TokenPattern string         `json:"token_pattern,omitempty" yaml:"token_pattern,omitempty"`
	NgramRange   []int          `json:"ngram_range,omitempty" yaml:"ngram_range,omitempty"`
	StopWords    []string       `json:"stop_words,omitempty" yaml:"stop_words,omitempty"`
	Binary       bool           `json:"binary,omitempty" yaml:"binary,omitempty"`
	SublinearTF  bool           `json:"sublinear_tf,omitempty" yaml:"sublinear_tf,omitempty"`
	Norm         string         `json:"norm,omitempty" yaml:"norm,omitempty"`
	Vocabulary   map[string]int `json:"vocabulary" yaml:"vocabulary"`
	IDF          []float64      `json:"idf,omitempty" yaml:"idf,omitempty"`

	tokenRe  *regexp.Regexp
	stop     map[string]struct{}
	minN     int
	maxN     int
	features int
}

func (v *Vectorizer) prepare() error {
	if v.Kind == "" {
		v.Kind = VectorizerTFIDF
	}
	if v.Kind != VectorizerTFIDF && v.Kind != VectorizerCount {
		return fmt.Errorf("unknown vectorizer kind %q", v.Kind)
	}
	if len(v.Vocabulary) == 0 {
		return fmt.Errorf("vocabulary is empty")
	}

	seen := make([]bool, len(v.Vocabulary))
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= len(v.Vocabulary) {
			return fmt.Errorf("vocabulary index %d for %q out of range [0,%d)", idx, term, len(v.Vocabulary))
		}
		if seen[idx] {
			return fmt.Errorf("vocabulary index %d assigned twice", idx)
		}
		seen[idx] = true
	}
	v.features = len(v.Vocabulary)

	if v.Kind == VectorizerTFIDF && len(v.IDF) != v.features {
		return fmt.Errorf("idf has %d weights, vocabulary has %d terms", len(v.IDF), v.features)
	}

	switch v.Norm {
	case "":
		if v.Kind == VectorizerTFIDF {
			v.Norm = NormL2
		} else {
			v.Norm = NormNone
		}
	case NormL1, NormL2, NormNone:
	default:
		return fmt.Errorf("unknown norm %q", v.Norm)
	}

	v.minN, v.maxN = 1, 1
	switch len(v.NgramRange) {
	case 0:
	case 2:
		v.minN, v.maxN = v.NgramRange[0], v.NgramRange[1]
	default:
		return fmt.Errorf("ngram_range must have two elements")
	}
	if v.minN < 1 || v.maxN < v.minN {
		return fmt.Errorf("invalid ngram_range [%d,%d]", v.minN, v.maxN)
	}

	pattern := v.TokenPattern
	if pattern == "" || pattern == sklearnTokenPattern {
		pattern = defaultTokenPattern
	}
	re, err := regexp.Compile(strings.TrimPrefix(pattern, "(?u)"))
	if err != nil {
		return fmt.Errorf("compile token_pattern: %w", err)
	}
	v.tokenRe = re

	v.stop = make(map[string]struct{}, len(v.StopWords))
	for _, w := range v.StopWords {
		v.stop[w] = struct{}{}
	}
	return nil
}

// Features returns the dimension of vectors produced by Transform.
func (v *Vectorizer) Features() int {
	return v.features
}

func (v *Vectorizer) lowercase() bool {
	return v.Lowercase == nil || *v.Lowercase
}

// Terms returns the n-grams extracted from text, before vocabulary lookup.
func (v *Vectorizer) Terms(text string) []string {
	text = norm.NFKC.String(text)
	if v.lowercase() {
		text = strings.ToLower(text)
	}

	tokens := make([]string, 0, 16)
	for _, tok := range v.tokenRe.FindAllString(text, -1) {
		if _, ok := v.stop[tok]; ok {
			continue
		}
		tokens = append(tokens, tok)
	}

	terms := make([]string, 0, len(tokens)*(v.maxN-v.minN+1))
	for n := v.minN; n <= v.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// Transform maps text onto the trained vocabulary. Terms outside the vocabulary are ignored.
func (v *Vectorizer) Transform(text string) *mat.VecDense {
	vec := mat.NewVecDense(v.features, nil)
	for _, term := range v.Terms(text) {
		if idx, ok := v.Vocabulary[term]; ok {
			vec.SetVec(idx, vec.AtVec(idx)+1)
		}
	}

	for i := 0; i < v.features; i++ {
		tf := vec.AtVec(i)
		if tf == 0 {
			continue
		}
		switch {
		case v.Binary:
			tf = 1
		case v.SublinearTF:
			tf = 1 + math.Log(tf)
		}
		if v.Kind == VectorizerTFIDF {
			tf *= v.IDF[i]
		}
		vec.SetVec(i, tf)
	}

	var length float64
	switch v.Norm {
	case NormL2:
		length = mat.Norm(vec, 2)
	case NormL1:
		length = mat.Norm(vec, 1)
	}
	if length > 0 {
		vec.ScaleVec(1/length, vec)
	}
	return vec
}
