package artifacts

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	ClassifierLogistic      = "logistic_regression"
	ClassifierMultinomialNB = "multinomial_nb"

	MultiClassMultinomial = "multinomial"
	MultiClassOVR         = "ovr"
)

// Classifier is a linear probabilistic classifier exported from a trained model.
// Column j of PredictProba corresponds to the encoded class Classes[j].
type Classifier struct {
	Kind       string `json:"kind" yaml:"kind"`
	MultiClass string `json:"multi_class,omitempty" yaml:"multi_class,omitempty"`
	Classes    []int  `json:"classes,omitempty" yaml:"classes,omitempty"`

	Coef      [][]float64 `json:"coef,omitempty" yaml:"coef,omitempty"`
	Intercept []float64   `json:"intercept,omitempty" yaml:"intercept,omitempty"`

	FeatureLogProb [][]float64 `json:"feature_log_prob,omitempty" yaml:"feature_log_prob,omitempty"`
	ClassLogPrior  []float64   `json:"class_log_prior,omitempty" yaml:"class_log_prior,omitempty"`

	weights *mat.Dense
	bias    *mat.VecDense
	binary  bool
}

func (c *Classifier) prepare(features int) error {
	var rows [][]float64
	var bias []float64

	switch c.Kind {
	case ClassifierLogistic:
		if c.MultiClass == "" {
			c.MultiClass = MultiClassMultinomial
		}
		if c.MultiClass != MultiClassMultinomial && c.MultiClass != MultiClassOVR {
			return fmt.Errorf("unknown multi_class %q", c.MultiClass)
		}
		rows, bias = c.Coef, c.Intercept
		if len(bias) == 0 {
			bias = make([]float64, len(rows))
		}
	case ClassifierMultinomialNB:
		rows, bias = c.FeatureLogProb, c.ClassLogPrior
	default:
		return fmt.Errorf("unknown classifier kind %q", c.Kind)
	}

	if len(rows) == 0 {
		return fmt.Errorf("classifier has no weight rows")
	}
	if len(bias) != len(rows) {
		return fmt.Errorf("classifier has %d weight rows but %d biases", len(rows), len(bias))
	}

	data := make([]float64, 0, len(rows)*features)
	for i, row := range rows {
		if len(row) != features {
			return fmt.Errorf("weight row %d has %d features, vectorizer produces %d", i, len(row), features)
		}
		data = append(data, row...)
	}
	c.weights = mat.NewDense(len(rows), features, data)
	c.bias = mat.NewVecDense(len(bias), append([]float64(nil), bias...))

	c.binary = c.Kind == ClassifierLogistic && len(rows) == 1
	outputs := len(rows)
	if c.binary {
		outputs = 2
	}
	if len(c.Classes) == 0 {
		c.Classes = make([]int, outputs)
		for i := range c.Classes {
			c.Classes[i] = i
		}
	}
	if len(c.Classes) != outputs {
		return fmt.Errorf("classifier lists %d classes but produces %d probabilities", len(c.Classes), outputs)
	}
	return nil
}

// NumClasses returns the length of the probability vector.
func (c *Classifier) NumClasses() int {
	return len(c.Classes)
}

// PredictProba returns a probability per class column; the values sum to 1.
func (c *Classifier) PredictProba(x *mat.VecDense) []float64 {
	rows, _ := c.weights.Dims()
	scores := mat.NewVecDense(rows, nil)
	scores.MulVec(c.weights, x)
	scores.AddVec(scores, c.bias)
	raw := scores.RawVector().Data

	if c.binary {
		p := sigmoid(raw[0])
		return []float64{1 - p, p}
	}

	if c.Kind == ClassifierLogistic && c.MultiClass == MultiClassOVR {
		probs := make([]float64, len(raw))
		for i, s := range raw {
			probs[i] = sigmoid(s)
		}
		if sum := floats.Sum(probs); sum > 0 {
			floats.Scale(1/sum, probs)
		}
		return probs
	}

	return softmax(raw)
}

func softmax(scores []float64) []float64 {
	lse := floats.LogSumExp(scores)
	probs := make([]float64, len(scores))
	for i, s := range scores {
		probs[i] = math.Exp(s - lse)
	}
	return probs
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
