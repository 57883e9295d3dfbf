package db

import (
	"context"
	"time"

	"github.com/kimhsiao/fragmind/internal/models"
	"github.com/kimhsiao/fragmind/internal/uuid"
)

// GetAIConfig retrieves the current AI configuration (only one active config allowed).
func (r *Repository) GetAIConfig(ctx context.Context) (*models.AIConfig, error) {
	query := `
	SELECT id, provider, api_endpoint, api_key_encrypted, model_name, max_tokens, style_prompt, is_enabled, created_at, updated_at
	FROM ai_config
	WHERE is_enabled = 1
	ORDER BY updated_at DESC
	LIMIT 1
	`
	var config models.AIConfig
	err := r.db.QueryRowContext(ctx, query).Scan(
		&config.ID, &config.Provider, &config.APIEndpoint, &config.APIKeyEncrypted,
		&config.ModelName, &config.MaxTokens, &config.StylePrompt, &config.IsEnabled,
		&config.CreatedAt, &config.UpdatedAt,
	)
	if err != nil {
		return nil, dbError("get ai config", err)
	}
	return &config, nil
}

// SaveAIConfig makes config the single enabled configuration. Older rows are
// disabled in the same transaction.
func (r *Repository) SaveAIConfig(ctx context.Context, config *models.AIConfig) error {
	if err := models.Validate(config); err != nil {
		return invalid("save ai config", err)
	}
	now := time.Now().Unix()
	config.UpdatedAt = now
	config.IsEnabled = true

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError("begin save ai config", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE ai_config SET is_enabled = 0 WHERE is_enabled = 1 AND id != ?`, config.ID); err != nil {
		return dbError("disable ai config", err)
	}

	if config.ID == "" {
		config.ID = models.UUID(uuid.New())
		config.CreatedAt = now
		_, err = tx.ExecContext(ctx, `
		INSERT INTO ai_config (id, provider, api_endpoint, api_key_encrypted, model_name, max_tokens, style_prompt, is_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, config.ID, config.Provider, config.APIEndpoint, config.APIKeyEncrypted,
			config.ModelName, config.MaxTokens, config.StylePrompt, config.IsEnabled, config.CreatedAt, config.UpdatedAt)
	} else {
		_, err = tx.ExecContext(ctx, `
		UPDATE ai_config
		SET provider = ?, api_endpoint = ?, api_key_encrypted = ?, model_name = ?, max_tokens = ?, style_prompt = ?, is_enabled = ?, updated_at = ?
		WHERE id = ?
		`, config.Provider, config.APIEndpoint, config.APIKeyEncrypted, config.ModelName,
			config.MaxTokens, config.StylePrompt, config.IsEnabled, config.UpdatedAt, config.ID)
	}
	if err != nil {
		return dbError("save ai config", err)
	}
	return dbError("commit ai config", tx.Commit())
}

// DisableAllAIConfig disables all AI configurations.
func (r *Repository) DisableAllAIConfig(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE ai_config SET is_enabled = 0 WHERE is_enabled = 1`)
	return dbError("disable ai config", err)
}
