//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing/fstest"

	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/domain"
	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/adapter"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/repository"
	"github.com/antsif-a/schizontology-bot/internal/infra/i18n"
)

// =============================
// Adapters
// =============================

// ---- Mock Directory ----

type MockDirectory struct {
	ResolveChatFunc        func(ctx context.Context, identifier string) (model.Destination, error)
	ListAdministratorsFunc func(ctx context.Context, channelID string) ([]string, error)

	resolveCalls atomic.Int32
	adminCalls   atomic.Int32
}

var _ adapter.Directory = (*MockDirectory)(nil)

func (m *MockDirectory) ResolveChat(ctx context.Context, identifier string) (model.Destination, error) {
	m.resolveCalls.Add(1)
	if m.ResolveChatFunc != nil {
		return m.ResolveChatFunc(ctx, identifier)
	}
	return model.Destination{Identifier: identifier}, nil
}

func (m *MockDirectory) ListAdministrators(ctx context.Context, channelID string) ([]string, error) {
	m.adminCalls.Add(1)
	if m.ListAdministratorsFunc != nil {
		return m.ListAdministratorsFunc(ctx, channelID)
	}
	return nil, nil
}

// ---- Mock Messenger ----

type forwardCall struct {
	To  int64
	Ref model.MessageRef
}

type MockMessenger struct {
	mu       sync.Mutex
	Sent     []adapter.SendMessageParams
	Forwards []forwardCall

	SendMessageFunc func(ctx context.Context, params adapter.SendMessageParams) error
	ForwardFunc     func(ctx context.Context, toChatID int64, ref model.MessageRef) error
}

var _ adapter.Messenger = (*MockMessenger)(nil)

func (m *MockMessenger) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, params)
	m.mu.Unlock()
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, params)
	}
	return nil
}

func (m *MockMessenger) Forward(ctx context.Context, toChatID int64, ref model.MessageRef) error {
	m.mu.Lock()
	m.Forwards = append(m.Forwards, forwardCall{To: toChatID, Ref: ref})
	m.mu.Unlock()
	if m.ForwardFunc != nil {
		return m.ForwardFunc(ctx, toChatID, ref)
	}
	return nil
}

func (m *MockMessenger) sent() []adapter.SendMessageParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]adapter.SendMessageParams(nil), m.Sent...)
}

func (m *MockMessenger) forwards() []forwardCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]forwardCall(nil), m.Forwards...)
}

// =============================
// Repositories
// =============================

// memRecipientCache is an in-memory RecipientCache.
type memRecipientCache struct {
	mu          sync.Mutex
	store       map[string]model.Destination
	invalidated []string
	getErr      error
}

var _ repository.RecipientCache = (*memRecipientCache)(nil)

func newMemRecipientCache() *memRecipientCache {
	return &memRecipientCache{store: make(map[string]model.Destination)}
}

func (c *memRecipientCache) Get(ctx context.Context, identifier string) (model.Destination, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return model.Destination{}, c.getErr
	}
	d, ok := c.store[identifier]
	if !ok {
		return model.Destination{}, domain.ErrNotFound
	}
	return d, nil
}

func (c *memRecipientCache) Set(ctx context.Context, dest model.Destination) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[dest.Identifier] = dest
	return nil
}

func (c *memRecipientCache) Invalidate(ctx context.Context, identifier string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, identifier)
	c.invalidated = append(c.invalidated, identifier)
	return nil
}

// =============================
// Helpers
// =============================

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

const (
	testStart    = "welcome"
	testModNote  = "you are a moderator"
	testAck      = "sent for review"
	testErrTitle = "Error!"
)

func newTestTranslator() *i18n.Translator {
	testFS := fstest.MapFS{
		"locales/test.yaml": {
			Data: []byte("start: '" + testStart + "'\nmoderator_notice: '" + testModNote +
				"'\nacknowledgment: '" + testAck + "'\nerror: '" + testErrTitle + "'\n"),
		},
	}
	translator, err := i18n.NewTranslator(testFS, "test")
	if err != nil {
		panic(err)
	}
	return translator
}

// chatIDs maps recipient identifiers "r1", "r2", ... to distinct chat ids.
var chatIDs = map[string]int64{"r1": 1001, "r2": 1002, "r3": 1003, "r4": 1004, "mod1": 2001}
