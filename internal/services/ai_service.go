// Package services manages the configured text service and exposes it to
// the diary and extraction components.
package services

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/kimhsiao/fragmind/internal/analysis"
	"github.com/kimhsiao/fragmind/internal/config"
	"github.com/kimhsiao/fragmind/internal/db"
	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/logging"
	"github.com/kimhsiao/fragmind/internal/models"
)

// AIService owns the active AI client. Settings stored in the database take
// precedence over the file and environment configuration. It satisfies
// analysis.Summarizer and analysis.TodoExtractor by delegating to the
// current client, so a reconfiguration is seen by every user.
type AIService struct {
	repo      db.AIConfigRepository
	base      config.AIConfig
	baseStyle string
	machineID string
	log       *logging.Logger

	httpClient *http.Client

	mu          sync.RWMutex
	client      *analysis.AIClient
	stylePrompt string
	stored      bool
}

// Settings is a user-supplied AI configuration.
type Settings struct {
	Provider    string
	APIEndpoint string
	APIKey      string
	ModelName   string
	MaxTokens   int
	StylePrompt string
}

// Option customizes an AIService.
type Option func(*AIService)

// WithHTTPClient sets the HTTP client used by created AI clients.
func WithHTTPClient(c *http.Client) Option {
	return func(s *AIService) { s.httpClient = c }
}

// WithLogger replaces the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *AIService) { s.log = l }
}

// NewAIService creates an AIService. It starts from base until Load is called.
func NewAIService(repo db.AIConfigRepository, base config.AIConfig, baseStyle, machineID string, opts ...Option) *AIService {
	s := &AIService{
		repo:      repo,
		base:      base,
		baseStyle: strings.TrimSpace(baseStyle),
		machineID: machineID,
		log:       logging.Get().Named("ai"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.client = s.newClient(s.baseConfig())
	s.stylePrompt = s.baseStyle
	return s
}

// Load applies the stored configuration, if any.
func (s *AIService) Load(ctx context.Context) error {
	stored, err := s.repo.GetAIConfig(ctx)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		s.apply(s.baseConfig(), s.baseStyle, false)
		return nil
	}
	if err != nil {
		return err
	}

	cfg := s.baseConfig()
	cfg.Provider = analysis.Provider(stored.Provider)
	cfg.APIEndpoint = stored.APIEndpoint
	cfg.ModelName = stored.ModelName
	cfg.MaxTokens = stored.MaxTokens
	if stored.Sealed() {
		key, err := stored.OpenKey(s.machineID)
		if err != nil {
			// A key sealed on another machine cannot be used here.
			s.log.Warn("stored API key could not be decrypted, falling back to environment", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			cfg.APIKey = key
		}
	}

	style := s.baseStyle
	if stored.Style() != "" {
		style = stored.Style()
	}
	s.apply(cfg, style, true)
	return nil
}

// ConfigureAI validates and stores settings with the key encrypted, then
// switches to them.
func (s *AIService) ConfigureAI(ctx context.Context, settings Settings) error {
	provider, err := analysis.ParseProvider(settings.Provider)
	if err != nil {
		return err
	}
	key := strings.TrimSpace(settings.APIKey)
	record := &models.AIConfig{
		Provider:    string(provider),
		APIEndpoint: strings.TrimSpace(settings.APIEndpoint),
		ModelName:   strings.TrimSpace(settings.ModelName),
		MaxTokens:   settings.MaxTokens,
		StylePrompt: strings.TrimSpace(settings.StylePrompt),
	}
	if key == "" && record.NeedsKey() {
		return apperrors.New(apperrors.ErrValidation, "API key is required for provider "+string(provider))
	}
	if err := record.SealKey(key, s.machineID); err != nil {
		return apperrors.Wrap(apperrors.ErrCryptoFailed, "encrypt API key", err)
	}
	if err := s.repo.SaveAIConfig(ctx, record); err != nil {
		return err
	}

	cfg := s.baseConfig()
	cfg.Provider = provider
	cfg.APIEndpoint = record.APIEndpoint
	cfg.ModelName = record.ModelName
	cfg.MaxTokens = record.MaxTokens
	cfg.APIKey = key
	style := s.baseStyle
	if record.StylePrompt != "" {
		style = record.StylePrompt
	}
	s.apply(cfg, style, true)

	s.log.Info("AI configured", map[string]interface{}{
		"provider": string(provider),
		"model":    s.Config().ModelName,
	})
	return nil
}

// DisableAI removes the stored configuration and reverts to the file and
// environment settings.
func (s *AIService) DisableAI(ctx context.Context) error {
	if err := s.repo.DisableAllAIConfig(ctx); err != nil {
		return err
	}
	s.apply(s.baseConfig(), s.baseStyle, false)
	s.log.Info("stored AI configuration disabled")
	return nil
}

// Config returns the effective configuration with the key redacted.
func (s *AIService) Config() analysis.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client.Config()
}

// Stored reports whether the effective configuration came from the database.
func (s *AIService) Stored() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stored
}

// StylePrompt returns the user's standing instruction for summaries.
func (s *AIService) StylePrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stylePrompt
}

// Available reports whether a credential is configured.
func (s *AIService) Available() bool {
	return s.current().Available()
}

// Summarize delegates to the current client.
func (s *AIService) Summarize(ctx context.Context, req analysis.SummaryRequest) (string, error) {
	return s.current().Summarize(ctx, req)
}

// ExtractTodos delegates to the current client.
func (s *AIService) ExtractTodos(ctx context.Context, req analysis.ExtractionRequest) ([]analysis.TodoCandidate, error) {
	return s.current().ExtractTodos(ctx, req)
}

func (s *AIService) current() *analysis.AIClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *AIService) apply(cfg analysis.Config, style string, stored bool) {
	client := s.newClient(cfg)
	s.mu.Lock()
	s.client = client
	s.stylePrompt = style
	s.stored = stored
	s.mu.Unlock()
}

func (s *AIService) newClient(cfg analysis.Config) *analysis.AIClient {
	opts := []analysis.Option{analysis.WithLogger(s.log)}
	if s.httpClient != nil {
		opts = append(opts, analysis.WithHTTPClient(s.httpClient))
	}
	return analysis.NewAIClient(cfg, opts...)
}

// baseConfig converts the file and environment settings. An unknown
// provider was already rejected by config validation.
func (s *AIService) baseConfig() analysis.Config {
	provider, _ := analysis.ParseProvider(s.base.Provider)
	return analysis.Config{
		Provider:    provider,
		APIEndpoint: s.base.APIEndpoint,
		APIKey:      strings.TrimSpace(s.base.APIKey),
		ModelName:   s.base.Model,
		MaxTokens:   s.base.MaxTokens,
		Timeout:     s.base.Timeout,
	}
}

// Ensure *AIService implements the capability interfaces at compile time.
var (
	_ analysis.Summarizer    = (*AIService)(nil)
	_ analysis.TodoExtractor = (*AIService)(nil)
)
