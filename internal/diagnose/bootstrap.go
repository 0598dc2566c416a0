package diagnose

import (
	"errors"
	"fmt"
	"log"

	"github.com/Skufu/GoSymptom/internal/artifacts"
	"github.com/Skufu/GoSymptom/internal/classify"
	"github.com/Skufu/GoSymptom/internal/config"
	"github.com/Skufu/GoSymptom/internal/explain"
	"github.com/Skufu/GoSymptom/internal/llm"
)

// Status describes what a built Service is running with. It backs /readyz.
type Status struct {
	Features     int    `json:"features"`
	Classes      int    `json:"classes"`
	Labels       int    `json:"labels"`
	TopK         int    `json:"topK"`
	Explanations bool   `json:"explanations"`
	Model        string `json:"model,omitempty"`
}

// Build loads the artifacts named by cfg and connects the explanation client.
// A missing API key is not an error: explanations are reported unavailable.
func Build(cfg *config.Config, logger *log.Logger) (*Service, Status, error) {
	if logger == nil {
		logger = log.Default()
	}

	vec, cls, enc := cfg.ArtifactPaths()
	set, err := artifacts.Load(artifacts.Paths{Vectorizer: vec, Classifier: cls, Encoder: enc})
	if err != nil {
		return nil, Status{}, err
	}

	model, err := llm.New(llm.Config{
		Provider: llm.Provider(cfg.LLMProvider),
		APIKey:   cfg.APIKey(),
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		Timeout:  cfg.LLMTimeout,
	})
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Printf("no API key for %s; explanations disabled", cfg.LLMProvider)
	case err != nil:
		return nil, Status{}, fmt.Errorf("llm client: %w", err)
	}

	pipeline := classify.NewPipeline(set, cfg.TopK)
	explainer := explain.New(model)

	status := Status{
		Features:     set.Vectorizer.Features(),
		Classes:      set.Classifier.NumClasses(),
		Labels:       set.Encoder.Len(),
		TopK:         pipeline.TopK(),
		Explanations: explainer.Available(),
	}
	if model != nil {
		status.Model = model.Name()
	}

	return NewService(pipeline, explainer, cfg.LLMTimeout, logger), status, nil
}
