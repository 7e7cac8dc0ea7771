// Package agents contains the specialized prompt handlers, one per intent.
// Each agent pairs a fixed system prompt with per-request fields and invokes
// the model collaborator at its own temperature.
package agents

import (
	"context"

	"github.com/cp-ai-assist-go/internal/models"
	"github.com/cp-ai-assist-go/internal/services/ai"
	"github.com/sirupsen/logrus"
)

type base struct {
	ai      ai.Service
	modelID string
	logger  *logrus.Logger
}

func (b *base) invoke(ctx context.Context, system, user string, temperature float64) (string, error) {
	return b.ai.GetResponse(ctx, ai.ChatRequest{
		Messages: []models.Message{
			{Role: "system", Content: system},
			{Role: models.RoleUser, Content: user},
		},
		ModelID:     b.modelID,
		Temperature: temperature,
	})
}
