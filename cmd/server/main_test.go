package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/GoSymptom/internal/artifacts"
	"github.com/Skufu/GoSymptom/internal/classify"
	"github.com/Skufu/GoSymptom/internal/diagnose"
	"github.com/Skufu/GoSymptom/internal/explain"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(ctx context.Context) error {
	return f.err
}

type failingLLM struct{}

func (failingLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("connection refused")
}

func (failingLLM) Name() string { return "failing" }

type fakeDiagnoser struct {
	err    error
	called bool
}

func (f *fakeDiagnoser) Diagnose(ctx context.Context, text string) (diagnose.Report, error) {
	f.called = true
	return diagnose.Report{}, f.err
}

func testdataDir() string {
	return filepath.Join("..", "..", "internal", "artifacts", "testdata")
}

func newTestServer(t *testing.T, explainer diagnose.Explainer) *server {
	t.Helper()
	set, err := artifacts.Load(artifacts.Paths{
		Vectorizer: filepath.Join(testdataDir(), "vectorizer.json"),
		Classifier: filepath.Join(testdataDir(), "classifier.json"),
		Encoder:    filepath.Join(testdataDir(), "label_encoder.json"),
	})
	if err != nil {
		t.Fatalf("load artifacts: %v", err)
	}
	svc := diagnose.NewService(classify.NewPipeline(set, classify.DefaultTopK), explainer, time.Second, nil)
	return &server{svc: svc, status: diagnose.Status{Features: 8, Classes: 7, Labels: 7, TopK: 5}}
}

func postForm(router *gin.Engine, symptoms string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	form := url.Values{"symptoms": {symptoms}}
	req, _ := http.NewRequest("POST", "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)
	return w
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRouterHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(&server{svc: &fakeDiagnoser{}, db: fakeDB{}})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRouterReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	status := diagnose.Status{Features: 8, Classes: 7, Labels: 7, TopK: 5}

	cases := []struct {
		name     string
		db       HealthChecker
		wantCode int
		wantDB   string
	}{
		{"db disabled", nil, http.StatusOK, `"db":"disabled"`},
		{"db healthy", fakeDB{}, http.StatusOK, `"db":"ok"`},
		{"db down", fakeDB{err: errors.New("refused")}, http.StatusServiceUnavailable, `"db":"unhealthy: refused"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := setupRouter(&server{svc: &fakeDiagnoser{}, db: tc.db, status: status})
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/readyz", nil)
			router.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, w.Code)
			}
			body := w.Body.String()
			if !strings.Contains(body, tc.wantDB) || !strings.Contains(body, `"classes":7`) {
				t.Fatalf("unexpected body: %s", body)
			}
		})
	}
}

func TestIndexRendersForm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(&server{svc: &fakeDiagnoser{}})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `name="symptoms"`) {
		t.Fatalf("expected symptom form, got %s", w.Body.String())
	}
}

func TestPredictFormUnavailableExplanations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(newTestServer(t, explain.New(nil)))

	w := postForm(router, "fever, cough, sore throat")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	for _, label := range []string{"Strep Throat", "Common Cold", "Flu", "Pneumonia", "Allergy"} {
		if !strings.Contains(body, label) {
			t.Fatalf("expected %q in result page", label)
		}
	}
	if strings.Count(body, "<li>") != 5 {
		t.Fatalf("expected 5 predictions, got body %s", body)
	}
	if !strings.Contains(body, "no API key is configured") {
		t.Fatalf("expected unavailable message, got %s", body)
	}
}

func TestPredictFormShortInput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := &fakeDiagnoser{err: &classify.InvalidInputError{Input: "ab", Min: classify.MinLength}}
	router := setupRouter(&server{svc: fake})

	w := postForm(router, "ab")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Symptom description must be at least 3 characters") {
		t.Fatalf("expected error message, got %s", body)
	}
	if !strings.Contains(body, ">ab</textarea>") {
		t.Fatalf("expected input to be echoed back, got %s", body)
	}
}

func TestPredictFormNoClassificationForShortInput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(newTestServer(t, explain.New(nil)))

	w := postForm(router, "ab")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<li>") {
		t.Fatalf("expected no predictions, got %s", w.Body.String())
	}
}

func TestPredictFormExplanationFailureStillShowsPredictions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(newTestServer(t, explain.New(failingLLM{})))

	w := postForm(router, "headache and nausea")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Migraine") {
		t.Fatalf("expected predictions, got %s", body)
	}
	if !strings.Contains(body, "could not be reached") {
		t.Fatalf("expected failure fallback, got %s", body)
	}
}

func TestPredictFormInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(&server{svc: &fakeDiagnoser{err: &artifacts.DecodeError{Index: 9, Known: 3}}})

	w := postForm(router, "fever")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "could not make a prediction") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestPredictAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(newTestServer(t, explain.New(nil)))

	w := postJSON(router, `{"symptoms": "itching rash"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var report struct {
		Symptoms    string `json:"symptoms"`
		Predictions []struct {
			Label       string  `json:"label"`
			Probability float64 `json:"probability"`
		} `json:"predictions"`
		Explanation struct {
			Records []map[string]string `json:"records"`
			Source  string              `json:"source"`
		} `json:"explanation"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(report.Predictions) != 5 || report.Predictions[0].Label != "Dermatitis" {
		t.Fatalf("unexpected predictions: %+v", report.Predictions)
	}
	if report.Explanation.Source != "unavailable" || report.Explanation.Records[0]["symptoms"] != "itching rash" {
		t.Fatalf("unexpected explanation: %+v", report.Explanation)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestPredictAPIValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(newTestServer(t, explain.New(nil)))

	w := postJSON(router, `{"symptoms": "  "}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for validation failure, got %d", w.Code)
	}
	body := strings.ToLower(w.Body.String())
	if !strings.Contains(body, "validation_failed") || !strings.Contains(body, "describe your symptoms") {
		t.Fatalf("expected validation error response, got %s", w.Body.String())
	}
}

func TestPredictAPIErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid payload", func(t *testing.T) {
		router := setupRouter(&server{svc: &fakeDiagnoser{}})
		w := postJSON(router, `{"symptoms":`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("decode fault", func(t *testing.T) {
		router := setupRouter(&server{svc: &fakeDiagnoser{err: &artifacts.DecodeError{Index: 9, Known: 3}}})
		w := postJSON(router, `{"symptoms": "fever"}`)
		if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "prediction_failed") {
			t.Fatalf("expected 500 prediction_failed, got %d %s", w.Code, w.Body.String())
		}
	})
}

func TestRequestIDIsPropagated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(requestID())
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, diagnose.RequestID(c.Request.Context()))
	})

	const given = "3f0c3a4e-8a0b-4b8e-9d1a-0a6f3c2d1e55"
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/id", nil)
	req.Header.Set(requestIDHeader, given)
	router.ServeHTTP(w, req)
	if w.Body.String() != given || w.Header().Get(requestIDHeader) != given {
		t.Fatalf("expected request id %s, got %s", given, w.Body.String())
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/id", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	router.ServeHTTP(w, req)
	if w.Body.String() == "not-a-uuid" || w.Body.String() == "" {
		t.Fatalf("expected a generated request id, got %q", w.Body.String())
	}
}

func TestRouterBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	oversized := strings.Repeat("a", 2<<20)

	t.Run("form within limit", func(t *testing.T) {
		router := setupRouter(newTestServer(t, explain.New(nil)))
		w := postForm(router, "fever and cough")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("form over limit", func(t *testing.T) {
		fake := &fakeDiagnoser{}
		router := setupRouter(&server{svc: fake})
		w := postForm(router, oversized)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "too long") || strings.Contains(body, "describe your symptoms") {
			t.Fatalf("expected too-long message, got %.200s", body)
		}
		if fake.called {
			t.Fatal("expected diagnoser not to be called")
		}
	})

	t.Run("form unreadable", func(t *testing.T) {
		fake := &fakeDiagnoser{}
		router := setupRouter(&server{svc: fake})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/predict", strings.NewReader("symptoms=%zz"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if fake.called {
			t.Fatal("expected diagnoser not to be called")
		}
	})

	t.Run("api over limit", func(t *testing.T) {
		router := setupRouter(&server{svc: &fakeDiagnoser{}})
		w := postJSON(router, `{"symptoms": "`+oversized+`"}`)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
	})
}

func TestDetectArtifactDir(t *testing.T) {
	root := t.TempDir()
	models := filepath.Join(root, "models")
	if err := os.MkdirAll(models, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(models, "vectorizer.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "cmd", "server")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// Getwd may resolve symlinks in the temp dir.
	cwd, _ := os.Getwd()
	models = filepath.Join(filepath.Dir(filepath.Dir(cwd)), "models")

	if got := detectArtifactDir("models", "vectorizer.json"); got != models {
		t.Fatalf("expected %s, got %s", models, got)
	}
	if got := detectArtifactDir("elsewhere", "vectorizer.json"); got != "elsewhere" {
		t.Fatalf("expected unresolved dir unchanged, got %s", got)
	}
	if got := detectArtifactDir(models, "x"); got != models {
		t.Fatalf("expected absolute dir unchanged, got %s", got)
	}
}
