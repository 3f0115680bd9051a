// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"github.com/antsif-a/schizontology-bot/internal/domain/model"
)

const (
	ParseModeNone = ""
	ParseModeHTML = "HTML"
)

type SendMessageParams struct {
	ChatID    int64
	Text      string
	ParseMode string
}

// Directory resolves chat identifiers and lists channel administrators.
// Identifiers are numeric chat ids or public "@username" handles.
type Directory interface {
	ResolveChat(ctx context.Context, identifier string) (model.Destination, error)
	// ListAdministrators returns the handles (without "@") of the channel's
	// administrators. Administrators without a public handle are omitted.
	ListAdministrators(ctx context.Context, channelID string) ([]string, error)
}

// Messenger is the outbound transport.
type Messenger interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
	Forward(ctx context.Context, toChatID int64, ref model.MessageRef) error
}
