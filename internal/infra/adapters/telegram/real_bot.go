package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/application"
	"github.com/antsif-a/schizontology-bot/internal/config"
	"github.com/antsif-a/schizontology-bot/internal/domain"
	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/adapter"
	"github.com/antsif-a/schizontology-bot/internal/infra/logging"
	"github.com/antsif-a/schizontology-bot/internal/infra/worker"
)

var (
	_ adapter.Directory = (*RealTelegramBotAdapter)(nil)
	_ adapter.Messenger = (*RealTelegramBotAdapter)(nil)
)

// RealTelegramBotAdapter uses tgbotapi to poll updates, look up chats and send
// messages. Updates are handed to an application.EventHandler on a worker pool.
type RealTelegramBotAdapter struct {
	bot *tgbotapi.BotAPI
	cfg *config.BotConfig
	log *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("authorized on telegram")

	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		log:           logger,
		updateWorkers: workers,
	}, nil
}

// StartPolling blocks until ctx is done. Queued and running updates are
// drained before it returns; they run on a context that survives ctx.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, handler application.EventHandler) error {
	if handler == nil {
		return errors.New("event handler is nil")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = r.cfg.UpdateTimeout
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel
	defer cancel()

	pool := worker.NewPool(r.updateWorkers, r.log)
	pool.Start(context.WithoutCancel(ctx))
	defer pool.Stop()

	pumpUpdates(ctx, updates, handler, pool, r.log)
	r.bot.StopReceivingUpdates()
	r.log.Info().Msg("polling stopped, draining in-flight updates")
	return nil
}

// pumpUpdates hands every received update to the pool until ctx is done or
// updates is closed. Updates already buffered at shutdown are still dispatched.
// An update the pool refuses goes to handler.HandleError.
func pumpUpdates(ctx context.Context, updates <-chan tgbotapi.Update, handler application.EventHandler, pool *worker.Pool, log *zerolog.Logger) {
	// Accepted updates must outlive the shutdown signal.
	submitCtx := context.WithoutCancel(ctx)
	dispatch := func(up tgbotapi.Update) {
		ev := ToEvent(up)
		err := pool.Submit(submitCtx, func(wctx context.Context) error {
			handler.HandleEvent(wctx, ev)
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Int("update_id", up.UpdateID).Msg("update not dispatched")
			handler.HandleError(submitCtx, fmt.Errorf("dispatch update %d: %w", up.UpdateID, err), up)
		}
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case up, ok := <-updates:
					if !ok {
						return
					}
					dispatch(up)
				default:
					return
				}
			}
		case up, ok := <-updates:
			if !ok {
				return
			}
			dispatch(up)
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// ResolveChat looks up a numeric chat id or an @username.
func (r *RealTelegramBotAdapter) ResolveChat(ctx context.Context, id string) (model.Destination, error) {
	if err := ctx.Err(); err != nil {
		return model.Destination{}, err
	}
	cc, err := chatConfig(id)
	if err != nil {
		return model.Destination{}, err
	}
	chat, err := r.bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: cc})
	if err != nil {
		return model.Destination{}, mapAPIError(err)
	}
	return model.Destination{Identifier: id, ChatID: chat.ID, Title: chatTitle(chat)}, nil
}

// ListAdministrators returns the handles of the channel administrators.
// Administrators without a username are skipped since they cannot match.
func (r *RealTelegramBotAdapter) ListAdministrators(ctx context.Context, channelID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cc, err := chatConfig(channelID)
	if err != nil {
		return nil, err
	}
	members, err := r.bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{ChatConfig: cc})
	if err != nil {
		return nil, mapAPIError(err)
	}
	handles := make([]string, 0, len(members))
	for _, m := range members {
		if m.User == nil || m.User.UserName == "" {
			continue
		}
		handles = append(handles, m.User.UserName)
	}
	return handles, nil
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, p adapter.SendMessageParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(p.ChatID, p.Text)
	msg.ParseMode = p.ParseMode
	if _, err := r.bot.Send(msg); err != nil {
		return mapAPIError(err)
	}
	return nil
}

func (r *RealTelegramBotAdapter) Forward(ctx context.Context, toChatID int64, ref model.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.bot.Send(tgbotapi.NewForward(toChatID, ref.ChatID, ref.MessageID)); err != nil {
		return mapAPIError(err)
	}
	return nil
}

// ToEvent maps one update to exactly one event. Only private chats are
// handled; /start is the only command.
func ToEvent(up tgbotapi.Update) model.Event {
	ev := model.Event{Kind: model.EventIgnored, Raw: up}
	msg := up.Message
	if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return ev
	}

	sender := model.Sender{ID: msg.Chat.ID, Handle: msg.Chat.UserName}
	if msg.From != nil {
		sender = model.Sender{ID: msg.From.ID, Handle: msg.From.UserName}
	}
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	ev.Message = &model.InboundMessage{
		Sender:     sender,
		Ref:        model.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID},
		Text:       text,
		ReceivedAt: msg.Time(),
	}
	if ev.Message.ReceivedAt.Unix() == 0 {
		ev.Message.ReceivedAt = time.Now()
	}

	if msg.IsCommand() && msg.Command() == "start" {
		ev.Kind = model.EventCommand
		ev.Command = "start"
		return ev
	}
	ev.Kind = model.EventPersonalMessage
	return ev
}

func chatConfig(id string) (tgbotapi.ChatConfig, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return tgbotapi.ChatConfig{}, fmt.Errorf("empty chat id: %w", domain.ErrInvalidArgument)
	}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return tgbotapi.ChatConfig{ChatID: n}, nil
	}
	if !strings.HasPrefix(id, "@") {
		id = "@" + id
	}
	return tgbotapi.ChatConfig{SuperGroupUsername: id}, nil
}

// mapAPIError folds Bot API failures onto domain sentinels where the caller can
// act on them. The original message is kept.
func mapAPIError(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	desc := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrChatUnavailable, apiErr.Message)
	case apiErr.Code == http.StatusBadRequest && (strings.Contains(desc, "not found") || strings.Contains(desc, "invalid")):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, apiErr.Message)
	default:
		return fmt.Errorf("telegram api %d: %s", apiErr.Code, apiErr.Message)
	}
}

func chatTitle(c tgbotapi.Chat) string {
	switch {
	case c.Title != "":
		return c.Title
	case c.UserName != "":
		return "@" + c.UserName
	default:
		return strings.TrimSpace(c.FirstName + " " + c.LastName)
	}
}
