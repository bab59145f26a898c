// Package gemini is a minimal client for the Gemini generateContent
// API, used to produce study aids for the active session.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/focusflow/internal/config"
	"github.com/amaumene/focusflow/internal/models"
)

const baseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client handles communication with the Gemini API
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new Gemini API client. The API key may be
// empty; requests then fail soft with a user-visible message instead
// of blocking startup.
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		apiKey:     cfg.GeminiAPIKey,
		model:      cfg.GeminiModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

// GenerateStudyAid asks Gemini for a study aid built from the session
// title and the user's notes
func (c *Client) GenerateStudyAid(ctx context.Context, title, notes string, kind models.GenerationKind) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("no Gemini API key configured")
	}

	prompt := buildPrompt(title, notes, kind)

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	fullURL := fmt.Sprintf("%s/models/%s:generateContent", baseURL, c.model)
	c.logger.WithFields(logrus.Fields{
		"model": c.model,
		"kind":  kind,
	}).Debug("Making Gemini API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := extractText(result)
	if text == "" {
		return "", fmt.Errorf("Gemini returned no usable content")
	}
	return text, nil
}

func extractText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

func buildPrompt(title, notes string, kind models.GenerationKind) string {
	var task string
	switch kind {
	case models.GenerationPlan:
		task = "Create a short, structured study plan for working through this video. Use numbered steps."
	case models.GenerationQuiz:
		task = "Write 5 quiz questions (with answers at the end) that test understanding of this video's likely content."
	default:
		task = "Refine and summarize the viewer's notes into clear, organized study notes."
	}

	var b strings.Builder
	b.WriteString("You are a study assistant for someone watching an educational video.\n")
	b.WriteString(fmt.Sprintf("Video title: %q\n", title))
	if notes != "" {
		b.WriteString("The viewer's notes so far:\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(task)
	b.WriteString("\nKeep the output plain text, no markdown headers.")
	return b.String()
}
