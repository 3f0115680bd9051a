package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/domain"
	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/adapter"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/repository"
	"github.com/antsif-a/schizontology-bot/internal/infra/metrics"
)

// Compile-time check
var _ ResolverUseCase = (*resolverUC)(nil)

type ResolverUseCase interface {
	// Resolve looks up every configured recipient concurrently. The result has one
	// entry per identifier in configuration order; failures are per entry.
	Resolve(ctx context.Context) []model.Resolution
	// Invalidate drops a cached destination so the next Resolve asks the directory.
	Invalidate(ctx context.Context, identifier string)
}

type resolverUC struct {
	dir        adapter.Directory
	recipients model.RecipientSet
	cache      repository.RecipientCache // nil: always resolve fresh
	log        *zerolog.Logger
}

// NewResolverUseCase builds a resolver. cache may be nil, in which case every call
// re-resolves every identifier.
func NewResolverUseCase(
	dir adapter.Directory,
	recipients model.RecipientSet,
	cache repository.RecipientCache,
	logger *zerolog.Logger,
) ResolverUseCase {
	return &resolverUC{
		dir:        dir,
		recipients: append(model.RecipientSet(nil), recipients...),
		cache:      cache,
		log:        logger,
	}
}

func (uc *resolverUC) Resolve(ctx context.Context) []model.Resolution {
	out := make([]model.Resolution, len(uc.recipients))

	var wg sync.WaitGroup
	wg.Add(len(uc.recipients))
	for i, id := range uc.recipients {
		go func(i int, id string) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					out[i] = model.Resolution{Identifier: id, Err: domain.NewResolutionError(id, domain.NewPanicError(rec))}
				}
			}()
			out[i] = uc.resolveOne(ctx, id)
		}(i, id)
	}
	wg.Wait()
	return out
}

func (uc *resolverUC) resolveOne(ctx context.Context, id string) model.Resolution {
	if uc.cache != nil {
		dest, err := uc.cache.Get(ctx, id)
		if err == nil {
			metrics.IncResolution("cached")
			return model.Resolution{Identifier: id, Destination: dest}
		}
		if !errors.Is(err, domain.ErrNotFound) {
			uc.log.Warn().Err(err).Str("recipient", id).Msg("recipient cache read failed")
		}
	}

	dest, err := uc.dir.ResolveChat(ctx, id)
	if err != nil {
		metrics.IncResolution("failed")
		uc.log.Warn().Err(err).Str("recipient", id).Msg("failed to resolve recipient")
		uc.Invalidate(ctx, id)
		return model.Resolution{Identifier: id, Err: domain.NewResolutionError(id, err)}
	}
	metrics.IncResolution("success")
	dest.Identifier = id

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, dest); err != nil {
			uc.log.Warn().Err(err).Str("recipient", id).Msg("recipient cache write failed")
		}
	}
	return model.Resolution{Identifier: id, Destination: dest}
}

func (uc *resolverUC) Invalidate(ctx context.Context, identifier string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, identifier); err != nil {
		uc.log.Warn().Err(err).Str("recipient", identifier).Msg("recipient cache invalidation failed")
	}
}
