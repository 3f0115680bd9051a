package usecase

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/domain"
	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/adapter"
	"github.com/antsif-a/schizontology-bot/internal/infra/i18n"
	"github.com/antsif-a/schizontology-bot/internal/infra/logging"
	"github.com/antsif-a/schizontology-bot/internal/infra/metrics"
)

// Compile-time check
var _ RouterUseCase = (*routerUC)(nil)

// Replies renders reply templates by key; *i18n.Translator satisfies it.
type Replies interface {
	T(key string, args ...interface{}) string
}

type RouterUseCase interface {
	// Route classifies the sender, replies to them and forwards the message to
	// every recipient. Only a classification failure is returned as an error, in
	// which case nothing was sent. Reply and forward failures are reported in the
	// result.
	Route(ctx context.Context, msg *model.InboundMessage) (model.RouteResult, error)
}

type routerUC struct {
	classifier ClassifierUseCase
	resolver   ResolverUseCase
	bot        adapter.Messenger
	replies    Replies
	log        *zerolog.Logger
}

func NewRouterUseCase(
	classifier ClassifierUseCase,
	resolver ResolverUseCase,
	bot adapter.Messenger,
	replies Replies,
	logger *zerolog.Logger,
) RouterUseCase {
	return &routerUC{
		classifier: classifier,
		resolver:   resolver,
		bot:        bot,
		replies:    replies,
		log:        logger,
	}
}

func (uc *routerUC) Route(ctx context.Context, msg *model.InboundMessage) (model.RouteResult, error) {
	if msg == nil {
		return model.RouteResult{}, domain.ErrInvalidArgument
	}
	start := time.Now()
	defer func() { metrics.ObserveRoute(time.Since(start)) }()
	l := logging.With(ctx, uc.log)
	defer logging.TraceDuration(l, "RouterUC.Route")()

	auth, err := uc.classifier.Classify(ctx, msg.Sender)
	if err != nil {
		metrics.IncRoutedMessage("failed")
		return model.RouteResult{Authorization: auth}, err
	}
	metrics.IncRoutedMessage(auth.Role())

	result := model.RouteResult{Authorization: auth}
	result.Reply = uc.reply(ctx, msg, auth)
	if !result.Reply.OK() {
		l.Warn().Err(result.Reply.Err).Msg("failed to reply to sender")
	}

	result.Forwards = uc.forwardAll(ctx, msg.Ref, uc.resolver.Resolve(ctx))

	l.Info().
		Str("role", auth.Role()).
		Bool("replied", result.Reply.OK()).
		Int("recipients", len(result.Forwards)).
		Int("delivered", result.Delivered()).
		Msg("message routed")
	return result, nil
}

func (uc *routerUC) reply(ctx context.Context, msg *model.InboundMessage, auth model.AuthorizationResult) model.DeliveryOutcome {
	key := i18n.KeyAcknowledgment
	if auth.Privileged {
		key = i18n.KeyModeratorNotice
	}
	target := strconv.FormatInt(msg.Ref.ChatID, 10)

	err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{
		ChatID: msg.Ref.ChatID,
		Text:   uc.replies.T(key),
	})
	out := model.DeliveryOutcome{Target: target}
	if err != nil {
		out.Err = domain.NewDeliveryError("reply", target, err)
	}
	metrics.IncDelivery("reply", out.Status())
	return out
}

// forwardAll forwards ref to every resolved destination concurrently. Each
// outcome is written to the slot of its recipient, so the result keeps the
// configured order and one failure never affects the others.
func (uc *routerUC) forwardAll(ctx context.Context, ref model.MessageRef, resolved []model.Resolution) []model.DeliveryOutcome {
	out := make([]model.DeliveryOutcome, len(resolved))

	var wg sync.WaitGroup
	for i, res := range resolved {
		if !res.OK() {
			out[i] = model.DeliveryOutcome{Target: res.Identifier, Err: res.Err}
			metrics.IncDelivery("forward", out[i].Status())
			continue
		}
		wg.Add(1)
		go func(i int, res model.Resolution) {
			defer wg.Done()
			out[i] = uc.forwardOne(ctx, ref, res)
			metrics.IncDelivery("forward", out[i].Status())
		}(i, res)
	}
	wg.Wait()
	return out
}

func (uc *routerUC) forwardOne(ctx context.Context, ref model.MessageRef, res model.Resolution) (out model.DeliveryOutcome) {
	out.Target = res.Identifier
	defer func() {
		if rec := recover(); rec != nil {
			out.Err = domain.NewDeliveryError("forward", res.Identifier, domain.NewPanicError(rec))
		}
	}()

	if err := uc.bot.Forward(ctx, res.Destination.ChatID, ref); err != nil {
		out.Err = domain.NewDeliveryError("forward", res.Identifier, err)
		logging.With(ctx, uc.log).Warn().Err(err).Str("recipient", res.Identifier).Msg("forward failed")
		// The destination may be stale; resolve it again next time.
		uc.resolver.Invalidate(ctx, res.Identifier)
	}
	return out
}
