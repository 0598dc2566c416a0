package diagnose

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/GoSymptom/internal/artifacts"
	"github.com/Skufu/GoSymptom/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		ArtifactDir:    filepath.Join("..", "artifacts", "testdata"),
		VectorizerFile: "vectorizer.json",
		ClassifierFile: "classifier.json",
		EncoderFile:    "label_encoder.json",
		TopK:           3,
		LLMProvider:    config.ProviderGemini,
		LLMTimeout:     time.Second,
	}
}

func TestBuildWithoutAPIKey(t *testing.T) {
	svc, status, err := Build(testConfig(), nil)
	require.NoError(t, err)
	require.NotNil(t, svc)

	assert.Equal(t, Status{Features: 8, Classes: 7, Labels: 7, TopK: 3}, status)
}

func TestBuildWithAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.LLMProvider = config.ProviderOpenAI
	cfg.OpenAIAPIKey = "sk-test"
	cfg.LLMModel = "gpt-test"

	_, status, err := Build(cfg, nil)
	require.NoError(t, err)
	assert.True(t, status.Explanations)
	assert.Equal(t, "openai/gpt-test", status.Model)
}

func TestBuildMissingArtifact(t *testing.T) {
	cfg := testConfig()
	cfg.ClassifierFile = "missing.json"

	_, _, err := Build(cfg, nil)
	var le *artifacts.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, artifacts.NameClassifier, le.Artifact)
}
