package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/logging"
	"github.com/kimhsiao/fragmind/internal/metrics"
)

// Provider names a supported AI backend.
type Provider string

const (
	ProviderDeepSeek Provider = "deepseek"
	ProviderOpenAI   Provider = "openai"
	ProviderClaude   Provider = "claude"
	ProviderOllama   Provider = "ollama"
)

// DefaultTimeout bounds every external call.
const DefaultTimeout = 30 * time.Second

type providerDefaults struct {
	endpoint string
	model    string
}

var defaults = map[Provider]providerDefaults{
	ProviderDeepSeek: {"https://api.deepseek.com", "deepseek-chat"},
	ProviderOpenAI:   {"https://api.openai.com/v1", "gpt-4o-mini"},
	ProviderClaude:   {"https://api.anthropic.com", "claude-3-5-haiku-latest"},
	ProviderOllama:   {"http://localhost:11434", "llama3"},
}

// ParseProvider validates a provider name. Empty means DeepSeek.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return ProviderDeepSeek, nil
	}
	if _, ok := defaults[p]; !ok {
		return "", apperrors.Newf(apperrors.ErrValidation, "unsupported AI provider %q (expected deepseek, openai, claude or ollama)", s)
	}
	return p, nil
}

// Config holds AI service configuration.
type Config struct {
	Provider    Provider `json:"provider"`
	APIEndpoint string   `json:"api_endpoint"`
	APIKey      string   `json:"-"`
	ModelName   string   `json:"model_name"`
	MaxTokens   int      `json:"max_tokens"`
	Timeout     time.Duration
}

// withDefaults fills endpoint, model and timeout for the provider.
func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderDeepSeek
	}
	d := defaults[c.Provider]
	if c.APIEndpoint == "" {
		c.APIEndpoint = d.endpoint
	}
	c.APIEndpoint = strings.TrimRight(c.APIEndpoint, "/")
	if c.ModelName == "" {
		c.ModelName = d.model
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// AIClient calls the configured provider. Calls are bounded by a per-call
// timeout and guarded by a circuit breaker; there are no retries.
type AIClient struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *logging.Logger
}

// Option customizes an AIClient.
type Option func(*AIClient)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *AIClient) { a.httpClient = c }
}

// WithLogger replaces the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *AIClient) { a.log = l }
}

// NewAIClient creates a client for config.
func NewAIClient(config Config, opts ...Option) *AIClient {
	a := &AIClient{
		config:     config.withDefaults(),
		httpClient: &http.Client{},
		log:        logging.Get().Named("analysis"),
	}
	for _, opt := range opts {
		opt(a)
	}

	name := "ai-" + string(a.config.Provider)
	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, int(to))
			a.log.Warn("ai circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
		IsSuccessful: func(err error) bool {
			// A caller abandoning the request says nothing about the service.
			return err == nil || stderrors.Is(err, context.Canceled)
		},
	})
	return a
}

// Config returns the effective configuration with the key redacted.
func (a *AIClient) Config() Config {
	c := a.config
	if c.APIKey != "" {
		c.APIKey = "********"
	}
	return c
}

// Available reports whether a credential is configured. Ollama runs locally
// and needs none.
func (a *AIClient) Available() bool {
	if a == nil {
		return false
	}
	return a.config.Provider == ProviderOllama || a.config.APIKey != ""
}

// Summarize writes a diary summary for req.
func (a *AIClient) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	if !a.Available() {
		return "", apperrors.New(apperrors.ErrAINotConfigured, "no AI credential configured")
	}
	text, err := a.complete(ctx, "summarize", summarySystemPrompt, buildSummaryPrompt(req), a.config.MaxTokens, false)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.New(apperrors.ErrAIMalformed, "empty summary returned")
	}
	return text, nil
}

// ExtractTodos extracts todo candidates from req.Text.
func (a *AIClient) ExtractTodos(ctx context.Context, req ExtractionRequest) ([]TodoCandidate, error) {
	if !a.Available() {
		return nil, apperrors.New(apperrors.ErrAINotConfigured, "no AI credential configured")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, nil
	}
	text, err := a.complete(ctx, "extract_todos", extractionSystemPrompt, buildExtractionPrompt(req), 1000, true)
	if err != nil {
		return nil, err
	}
	candidates, err := parseTodoCandidates(text)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrAIMalformed, "parse todo list", err)
	}
	return candidates, nil
}

// complete runs one bounded, breaker-guarded request.
func (a *AIClient) complete(ctx context.Context, op, system, user string, maxTokens int, jsonOut bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	start := time.Now()
	out, err := a.breaker.Execute(func() (interface{}, error) {
		switch a.config.Provider {
		case ProviderDeepSeek, ProviderOpenAI:
			return a.doOpenAIRequest(ctx, system, user, maxTokens, jsonOut)
		case ProviderClaude:
			return a.doClaudeRequest(ctx, system, user, maxTokens)
		case ProviderOllama:
			return a.doOllamaRequest(ctx, system, user, jsonOut)
		default:
			return "", fmt.Errorf("unsupported AI provider: %s", a.config.Provider)
		}
	})

	err = classify(err)
	metrics.RecordAIRequest(string(a.config.Provider), op, resultLabel(err), time.Since(start).Seconds())
	if err != nil {
		a.log.Warn("ai request failed", map[string]interface{}{
			"provider":  string(a.config.Provider),
			"operation": op,
			"error":     err.Error(),
		})
		return "", err
	}
	return out.(string), nil
}

// httpStatusError is a non-200 reply.
type httpStatusError struct {
	provider string
	status   int
	body     string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.provider, e.status, e.body)
}

// classify maps transport and breaker errors onto AI error codes.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrAITimeout, "ai request timed out", err)
	}
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.Wrap(apperrors.ErrAIFailed, "ai service temporarily disabled after repeated failures", err)
	}
	var statusErr *httpStatusError
	if stderrors.As(err, &statusErr) && statusErr.status == http.StatusTooManyRequests {
		return apperrors.Wrap(apperrors.ErrAIRateLimit, "ai rate limited", err)
	}
	return apperrors.Wrap(apperrors.ErrAIFailed, "ai request failed", err)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperrors.Is(err, apperrors.ErrAITimeout):
		return "timeout"
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	default:
		return "error"
	}
}

// postJSON sends body and decodes a 200 reply into out.
func (a *AIClient) postJSON(ctx context.Context, provider, url string, headers map[string]string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &httpStatusError{provider: provider, status: resp.StatusCode, body: strings.TrimSpace(string(b))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// =====================================================
// OpenAI-compatible Integration (OpenAI, DeepSeek)
// =====================================================

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (a *AIClient) doOpenAIRequest(ctx context.Context, system, user string, maxTokens int, jsonOut bool) (string, error) {
	reqBody := openAIRequest{
		Model: a.config.ModelName,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: maxTokens,
	}
	if jsonOut {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp openAIResponse
	headers := map[string]string{"Authorization": "Bearer " + a.config.APIKey}
	if err := a.postJSON(ctx, "OpenAI", a.config.APIEndpoint+"/chat/completions", headers, reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// =====================================================
// Claude Integration
// =====================================================

type claudeRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (a *AIClient) doClaudeRequest(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		// The Messages API requires an explicit budget.
		maxTokens = 2048
	}
	reqBody := claudeRequest{
		Model:     a.config.ModelName,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	}

	var resp claudeResponse
	headers := map[string]string{
		"x-api-key":         a.config.APIKey,
		"anthropic-version": "2023-06-01",
	}
	if err := a.postJSON(ctx, "Claude", a.config.APIEndpoint+"/v1/messages", headers, reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("Claude API error: %s", resp.Error.Message)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no response from Claude")
	}
	return resp.Content[0].Text, nil
}

// =====================================================
// Ollama Integration (Local)
// =====================================================

type ollamaRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (a *AIClient) doOllamaRequest(ctx context.Context, system, user string, jsonOut bool) (string, error) {
	reqBody := ollamaRequest{
		Model:  a.config.ModelName,
		System: system,
		Prompt: user,
	}
	if jsonOut {
		reqBody.Format = "json"
	}

	var resp ollamaResponse
	if err := a.postJSON(ctx, "Ollama", a.config.APIEndpoint+"/api/generate", nil, reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("Ollama error: %s", resp.Error)
	}
	return resp.Response, nil
}
