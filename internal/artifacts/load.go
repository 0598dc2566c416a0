package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	NameVectorizer = "vectorizer"
	NameClassifier = "classifier"
	NameEncoder    = "label encoder"
)

// LoadError is returned when an artifact is missing, unreadable or malformed.
type LoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("load %s from %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type Paths struct {
	Vectorizer string
	Classifier string
	Encoder    string
}

// Set holds the three trained artifacts. It is never mutated after construction
// and is safe for concurrent use.
type Set struct {
	Vectorizer *Vectorizer
	Classifier *Classifier
	Encoder    *LabelEncoder
}

// Load reads and validates all three artifacts. Any failure yields a *LoadError.
func Load(p Paths) (*Set, error) {
	var (
		v Vectorizer
		c Classifier
		e LabelEncoder
	)
	if err := decodeFile(p.Vectorizer, &v); err != nil {
		return nil, &LoadError{Artifact: NameVectorizer, Path: p.Vectorizer, Err: err}
	}
	if err := decodeFile(p.Classifier, &c); err != nil {
		return nil, &LoadError{Artifact: NameClassifier, Path: p.Classifier, Err: err}
	}
	if err := decodeFile(p.Encoder, &e); err != nil {
		return nil, &LoadError{Artifact: NameEncoder, Path: p.Encoder, Err: err}
	}

	set, err := New(&v, &c, &e)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			switch le.Artifact {
			case NameVectorizer:
				le.Path = p.Vectorizer
			case NameClassifier:
				le.Path = p.Classifier
			case NameEncoder:
				le.Path = p.Encoder
			}
		}
		return nil, err
	}
	return set, nil
}

// New validates artifacts built in memory and links them into a Set.
func New(v *Vectorizer, c *Classifier, e *LabelEncoder) (*Set, error) {
	if v == nil || c == nil || e == nil {
		return nil, &LoadError{Artifact: "artifacts", Err: fmt.Errorf("vectorizer, classifier and encoder are required")}
	}
	if err := v.prepare(); err != nil {
		return nil, &LoadError{Artifact: NameVectorizer, Err: err}
	}
	if err := c.prepare(v.Features()); err != nil {
		return nil, &LoadError{Artifact: NameClassifier, Err: err}
	}
	if err := e.prepare(); err != nil {
		return nil, &LoadError{Artifact: NameEncoder, Err: err}
	}
	return &Set{Vectorizer: v, Classifier: c, Encoder: e}, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("file is empty")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported artifact format %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
	return nil
}
