package diagnose

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Skufu/GoSymptom/internal/artifacts"
	"github.com/Skufu/GoSymptom/internal/classify"
	"github.com/Skufu/GoSymptom/internal/explain"
)

type Classifier interface {
	Classify(text string) (classify.Selection, error)
}

type Explainer interface {
	Explain(ctx context.Context, labels []string, symptoms string) (explain.Result, error)
}

// Report is everything shown for one submission.
type Report struct {
	Symptoms    string               `json:"symptoms" yaml:"symptoms"`
	Predictions []classify.Candidate `json:"predictions" yaml:"predictions"`
	Explanation *explain.Result      `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

type Service struct {
	classifier Classifier
	explainer  Explainer
	timeout    time.Duration
	logger     *log.Logger
}

// NewService wires the pipeline. A nil explainer skips explanations entirely.
// timeout bounds the explanation call; zero means no extra deadline.
func NewService(c Classifier, e Explainer, timeout time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{classifier: c, explainer: e, timeout: timeout, logger: logger}
}

// WithoutExplanations returns a copy of s that only classifies.
func (s *Service) WithoutExplanations() *Service {
	c := *s
	c.explainer = nil
	return &c
}

// Diagnose classifies text and attaches explanations. It fails only for invalid
// input (*classify.InvalidInputError) or a label decode fault (*artifacts.DecodeError);
// explanation problems degrade to fallback records.
func (s *Service) Diagnose(ctx context.Context, text string) (Report, error) {
	symptoms := strings.TrimSpace(text)
	if err := classify.Validate(symptoms); err != nil {
		return Report{}, err
	}

	sel, err := s.classifier.Classify(symptoms)
	if err != nil {
		var de *artifacts.DecodeError
		if errors.As(err, &de) {
			s.logf(ctx, "artifact mismatch: %v", err)
		}
		return Report{}, err
	}

	report := Report{Symptoms: symptoms, Predictions: sel.Candidates}
	if s.explainer == nil {
		return report, nil
	}

	ectx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ectx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.explainer.Explain(ectx, sel.Labels(), symptoms)
	if err != nil {
		s.logf(ctx, "explanation failed: %v", err)
		res = explain.Failed(symptoms)
	}
	report.Explanation = &res
	return report, nil
}

type requestIDKey struct{}

// WithRequestID tags ctx so log lines written during Diagnose carry the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Service) logf(ctx context.Context, format string, args ...any) {
	if id := RequestID(ctx); id != "" {
		format = "[" + id + "] " + format
	}
	s.logger.Printf(format, args...)
}
