package main

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/GoSymptom/internal/classify"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	predictionFailedMessage = "We could not make a prediction right now. Please try again later."
	tooLongMessage          = "Your description is too long. Please shorten it and try again."
	unreadableFormMessage   = "We could not read the submitted form. Please try again."
)

type predictRequest struct {
	Symptoms string `json:"symptoms"`
}

func loadTemplates() *template.Template {
	funcs := template.FuncMap{
		"percent": func(p float64) string { return fmt.Sprintf("%.1f%%", p*100) },
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func (s *server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{})
}

func (s *server) handlePredictForm(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.HTML(http.StatusRequestEntityTooLarge, "index.html", gin.H{"Error": tooLongMessage})
			return
		}
		c.HTML(http.StatusBadRequest, "index.html", gin.H{"Error": unreadableFormMessage})
		return
	}
	symptoms := c.PostForm("symptoms")

	report, err := s.svc.Diagnose(c.Request.Context(), symptoms)
	if err != nil {
		var invalid *classify.InvalidInputError
		if errors.As(err, &invalid) {
			c.HTML(http.StatusUnprocessableEntity, "index.html", gin.H{
				"Error":    capitalize(invalid.Error()),
				"Symptoms": symptoms,
			})
			return
		}
		c.HTML(http.StatusInternalServerError, "index.html", gin.H{
			"Error":    predictionFailedMessage,
			"Symptoms": symptoms,
		})
		return
	}

	c.HTML(http.StatusOK, "result.html", gin.H{"Report": report})
}

func (s *server) handlePredictAPI(c *gin.Context) {
	var payload predictRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload_too_large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	report, err := s.svc.Diagnose(c.Request.Context(), payload.Symptoms)
	if err != nil {
		var invalid *classify.InvalidInputError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation_failed",
				"message": invalid.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "prediction_failed",
			"requestId": c.GetString(requestIDKey),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
