package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/domain"
	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/adapter"
)

// Compile-time check
var _ ClassifierUseCase = (*classifierUC)(nil)

type ClassifierUseCase interface {
	// Classify reports whether sender moderates the gating channel. A directory
	// failure is returned as *domain.ClassificationError, never as "ordinary".
	Classify(ctx context.Context, sender model.Sender) (model.AuthorizationResult, error)
}

type classifierUC struct {
	dir       adapter.Directory
	channelID string
	log       *zerolog.Logger
}

func NewClassifierUseCase(dir adapter.Directory, channelID string, logger *zerolog.Logger) ClassifierUseCase {
	return &classifierUC{dir: dir, channelID: channelID, log: logger}
}

func (uc *classifierUC) Classify(ctx context.Context, sender model.Sender) (model.AuthorizationResult, error) {
	if !sender.HasHandle() {
		return model.AuthorizationResult{}, nil
	}

	admins, err := uc.dir.ListAdministrators(ctx, uc.channelID)
	if err != nil {
		return model.AuthorizationResult{Handle: sender.Handle}, domain.NewClassificationError(uc.channelID, sender.Handle, err)
	}

	// Exact, case-sensitive comparison with no normalization.
	for _, a := range admins {
		if a == sender.Handle {
			uc.log.Debug().Str("handle", sender.Handle).Msg("sender is a channel administrator")
			return model.AuthorizationResult{Privileged: true, Handle: sender.Handle}, nil
		}
	}
	return model.AuthorizationResult{Handle: sender.Handle}, nil
}
