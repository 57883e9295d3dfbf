package models

import (
	"strings"

	"github.com/kimhsiao/fragmind/internal/crypto"
)

// KeylessProvider runs locally and needs no credential.
const KeylessProvider = "ollama"

// AIConfig is the row of AI settings chosen with "config set-key". While a
// row is enabled it overrides the config file and environment. The key is
// sealed to the machine that stored it.
type AIConfig struct {
	ID              UUID   `db:"id" json:"id"`
	Provider        string `db:"provider" json:"provider" validate:"required,oneof=deepseek openai claude ollama"`
	APIEndpoint     string `db:"api_endpoint" json:"api_endpoint" validate:"omitempty,url"`
	APIKeyEncrypted string `db:"api_key_encrypted" json:"-"`
	ModelName       string `db:"model_name" json:"model_name"`
	MaxTokens       int    `db:"max_tokens" json:"max_tokens" validate:"gte=0,lte=32000"`
	StylePrompt     string `db:"style_prompt" json:"style_prompt"`
	IsEnabled       bool   `db:"is_enabled" json:"is_enabled"`
	CreatedAt       int64  `db:"created_at" json:"created_at"`
	UpdatedAt       int64  `db:"updated_at" json:"updated_at"`
}

func (AIConfig) TableName() string {
	return "ai_config"
}

// NeedsKey reports whether the provider refuses requests without a key.
func (a *AIConfig) NeedsKey() bool {
	return a.Provider != KeylessProvider
}

// SealKey stores key encrypted for machineID. An empty key clears it.
func (a *AIConfig) SealKey(key, machineID string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		a.APIKeyEncrypted = ""
		return nil
	}
	sealed, err := crypto.EncryptAPIKey(key, machineID)
	if err != nil {
		return err
	}
	a.APIKeyEncrypted = sealed
	return nil
}

// OpenKey returns the stored key. It fails when the row was sealed on a
// different machine.
func (a *AIConfig) OpenKey(machineID string) (string, error) {
	if !a.Sealed() {
		return "", nil
	}
	return crypto.DecryptAPIKey(a.APIKeyEncrypted, machineID)
}

func (a *AIConfig) Sealed() bool {
	return a.APIKeyEncrypted != ""
}

// Style is the summary style instruction, or "" to keep the configured one.
func (a *AIConfig) Style() string {
	return strings.TrimSpace(a.StylePrompt)
}
