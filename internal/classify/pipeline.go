package classify

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Skufu/GoSymptom/internal/artifacts"
)

const (
	DefaultTopK = 5
	MinLength   = 3
)

// InvalidInputError is returned when the symptom text is too short to classify.
type InvalidInputError struct {
	Input string
	Min   int
}

func (e *InvalidInputError) Error() string {
	if strings.TrimSpace(e.Input) == "" {
		return "please describe your symptoms"
	}
	return fmt.Sprintf("symptom description must be at least %d characters", e.Min)
}

type Candidate struct {
	Label       string  `json:"label" yaml:"label"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Selection is the top-k candidates in descending probability order.
type Selection struct {
	Candidates []Candidate `json:"candidates" yaml:"candidates"`
}

func (s Selection) Labels() []string {
	labels := make([]string, len(s.Candidates))
	for i, c := range s.Candidates {
		labels[i] = c.Label
	}
	return labels
}

type Pipeline struct {
	set  *artifacts.Set
	topK int
}

// NewPipeline returns a pipeline over a loaded artifact set. topK <= 0 selects DefaultTopK.
func NewPipeline(set *artifacts.Set, topK int) *Pipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Pipeline{set: set, topK: topK}
}

func (p *Pipeline) TopK() int {
	return p.topK
}

// Validate reports whether text can be classified.
func Validate(text string) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinLength {
		return &InvalidInputError{Input: text, Min: MinLength}
	}
	return nil
}

// Classify returns the k most likely labels for text. Equal probabilities keep
// the lower class column first.
func (p *Pipeline) Classify(text string) (Selection, error) {
	if err := Validate(text); err != nil {
		return Selection{}, err
	}

	features := p.set.Vectorizer.Transform(text)
	probs := p.set.Classifier.PredictProba(features)

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] > probs[order[b]]
	})

	k := p.topK
	if k > len(order) {
		k = len(order)
	}

	sel := Selection{Candidates: make([]Candidate, 0, k)}
	for _, col := range order[:k] {
		label, err := p.set.Encoder.Decode(p.set.Classifier.Classes[col])
		if err != nil {
			return Selection{}, fmt.Errorf("decode class column %d: %w", col, err)
		}
		sel.Candidates = append(sel.Candidates, Candidate{Label: label, Probability: probs[col]})
	}
	return sel, nil
}
