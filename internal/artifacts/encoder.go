package artifacts

import "fmt"

// LabelEncoder maps encoded class indices back to disease names.
type LabelEncoder struct {
	Classes []string `json:"classes" yaml:"classes"`
}

// DecodeError reports a class index the encoder does not know. It means the
// classifier and encoder were not exported from the same training run.
type DecodeError struct {
	Index int
	Known int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("class index %d outside label range [0,%d)", e.Index, e.Known)
}

func (e *LabelEncoder) prepare() error {
	if len(e.Classes) == 0 {
		return fmt.Errorf("label encoder has no classes")
	}
	seen := make(map[string]int, len(e.Classes))
	for i, label := range e.Classes {
		if label == "" {
			return fmt.Errorf("label %d is empty", i)
		}
		if j, dup := seen[label]; dup {
			return fmt.Errorf("label %q appears at %d and %d", label, j, i)
		}
		seen[label] = i
	}
	return nil
}

func (e *LabelEncoder) Len() int {
	return len(e.Classes)
}

func (e *LabelEncoder) Decode(index int) (string, error) {
	if index < 0 || index >= len(e.Classes) {
		return "", &DecodeError{Index: index, Known: len(e.Classes)}
	}
	return e.Classes[index], nil
}
