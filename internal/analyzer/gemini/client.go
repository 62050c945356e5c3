// Package gemini implements the analysis contract against the Google Gemini
// generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sevigo/pr-sentry/internal/core"
	"github.com/sevigo/pr-sentry/internal/diff"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 60 * time.Second

	temperature     = 0.3
	maxOutputTokens = 2000
)

// Analyzer reviews diffs by prompting a Gemini model, one request per
// changed file. It satisfies core.Analyzer.
type Analyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewAnalyzer creates a Gemini-backed analyzer.
func NewAnalyzer(apiKey, model string, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// SetBaseURL overrides the API endpoint (used in tests).
func (a *Analyzer) SetBaseURL(url string) { a.baseURL = url }

// Analyze prompts the model about each changed file and aggregates the
// parsed findings. Any request failure fails the whole PR analysis; the
// scheduler retries it on the next cycle.
func (a *Analyzer) Analyze(ctx context.Context, files []diff.FileDiff, mode core.ReviewMode) ([]core.Finding, error) {
	var findings []core.Finding

	for _, file := range files {
		prompt := systemPrompt(mode) + "\n\n" + buildFilePrompt(file)

		text, err := a.generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrAnalysis, file.Path, err)
		}

		fileFindings := parseFindings(text, file.Path)
		a.logger.Debug("analyzed file", "file", file.Path, "findings", len(fileFindings))
		findings = append(findings, fileFindings...)
	}

	return findings, nil
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// generate performs one generateContent call and returns the first
// candidate's text.
func (a *Analyzer) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", a.baseURL, a.model, a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("API error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		// the model returned nothing reviewable
		return "", nil
	}

	var sb bytes.Buffer
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
