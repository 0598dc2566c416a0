package explain

import "encoding/json"

type Kind string

const (
	// KindStructured carries the per-disease fields.
	KindStructured Kind = "structured"
	// KindFallback carries free text bound to the submitted symptoms.
	KindFallback Kind = "fallback"
)

// Source records which branch produced a Result.
type Source string

const (
	SourceModel       Source = "model"
	SourceUnparsed    Source = "unparsed"
	SourceUnavailable Source = "unavailable"
	SourceFailed      Source = "failed"
)

const (
	UnavailableMessage   = "AI explanations are unavailable because no API key is configured."
	UnprocessableMessage = "Unable to process an explanation for these symptoms right now."
	FailedMessage        = "The explanation service could not be reached. Predictions are shown without explanations."
)

// Explanation is either a structured disease record or a free-text fallback.
type Explanation struct {
	Kind Kind

	Disease     string
	Description string
	Treatment   string
	Prevention  string

	Symptoms string
	Response string
}

type structuredWire struct {
	Disease     string `json:"Disease Name" yaml:"Disease Name"`
	Description string `json:"Description" yaml:"Description"`
	Treatment   string `json:"Treatment" yaml:"Treatment"`
	Prevention  string `json:"Prevention" yaml:"Prevention"`
}

type fallbackWire struct {
	Symptoms string `json:"symptoms" yaml:"symptoms"`
	Response string `json:"response" yaml:"response"`
}

func (e Explanation) wire() any {
	if e.Kind == KindStructured {
		return structuredWire{Disease: e.Disease, Description: e.Description, Treatment: e.Treatment, Prevention: e.Prevention}
	}
	return fallbackWire{Symptoms: e.Symptoms, Response: e.Response}
}

// MarshalJSON emits the same field names the model is asked to produce.
func (e Explanation) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wire())
}

func (e Explanation) MarshalYAML() (interface{}, error) {
	return e.wire(), nil
}

func (e Explanation) Structured() bool {
	return e.Kind == KindStructured
}

func Fallback(symptoms, response string) Explanation {
	return Explanation{Kind: KindFallback, Symptoms: symptoms, Response: response}
}

// Result is the outcome of one explanation attempt. Records is never empty.
type Result struct {
	Records []Explanation `json:"records" yaml:"records"`
	Source  Source        `json:"source" yaml:"source"`
}

func (r Result) Degraded() bool {
	return r.Source != SourceModel
}

func Unavailable(symptoms string) Result {
	return Result{Records: []Explanation{Fallback(symptoms, UnavailableMessage)}, Source: SourceUnavailable}
}

// Failed is substituted by callers when the service call itself errors.
func Failed(symptoms string) Result {
	return Result{Records: []Explanation{Fallback(symptoms, FailedMessage)}, Source: SourceFailed}
}
