package repository

import (
	"context"

	"github.com/antsif-a/schizontology-bot/internal/domain/model"
)

// RecipientCache stores resolved destinations keyed by configured identifier.
// Get returns domain.ErrNotFound on a miss.
type RecipientCache interface {
	Get(ctx context.Context, identifier string) (model.Destination, error)
	Set(ctx context.Context, dest model.Destination) error
	Invalidate(ctx context.Context, identifier string) error
}
