package i18n

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cp-ai-assist-go/internal/config"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Localizer manages internationalization
type Localizer struct {
	bundle          *i18n.Bundle
	defaultLanguage string
	localizers      map[string]*i18n.Localizer
}

// NewLocalizer creates a new localizer
func NewLocalizer(cfg *config.I18nConfig) (*Localizer, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	dir := cfg.Directory
	if dir == "" {
		dir = "configs/i18n"
	}

	// Load language files
	for _, lang := range cfg.Languages {
		if _, err := bundle.LoadMessageFile(filepath.Join(dir, fmt.Sprintf("%s.json", lang))); err != nil {
			return nil, fmt.Errorf("failed to load language file %s: %w", lang, err)
		}
	}

	localizers := make(map[string]*i18n.Localizer)
	for _, lang := range cfg.Languages {
		localizers[lang] = i18n.NewLocalizer(bundle, lang)
	}

	return &Localizer{
		bundle:          bundle,
		defaultLanguage: cfg.DefaultLanguage,
		localizers:      localizers,
	}, nil
}

// Get returns a localized message. An empty or unknown lang falls back to the
// default language; an unknown message ID falls back to the ID itself.
func (l *Localizer) Get(lang, messageID string, data map[string]interface{}) string {
	localizer, exists := l.localizers[lang]
	if !exists {
		localizer = l.localizers[l.defaultLanguage]
	}
	if localizer == nil {
		return messageID
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID // Fallback to message ID
	}

	return msg
}

// Message IDs
const (
	MsgHintLimitReached  = "hint_limit_reached"
	MsgRateLimitExceeded = "rate_limit_exceeded"
	MsgInternalError     = "internal_error"
	MsgInvalidRequest    = "invalid_request"
	MsgQuestionTooLong   = "question_too_long"
)
