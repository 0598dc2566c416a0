package explain

import (
	"context"
	"fmt"

	"github.com/Skufu/GoSymptom/internal/llm"
)

// Explainer asks a generative model to describe predicted diseases. A nil model
// means the service is not configured and every call returns Unavailable.
type Explainer struct {
	model llm.LLM
}

func New(model llm.LLM) *Explainer {
	return &Explainer{model: model}
}

func (e *Explainer) Available() bool {
	return e != nil && e.model != nil
}

// Explain returns parsed or fallback records. The error is non-nil only when the
// service call fails; callers substitute Failed(symptoms) in that case.
func (e *Explainer) Explain(ctx context.Context, labels []string, symptoms string) (Result, error) {
	if !e.Available() {
		return Unavailable(symptoms), nil
	}

	raw, err := e.model.Generate(ctx, BuildPrompt(symptoms, labels))
	if err != nil {
		return Result{}, fmt.Errorf("generate explanation with %s: %w", e.model.Name(), err)
	}
	return Parse(raw, symptoms), nil
}
