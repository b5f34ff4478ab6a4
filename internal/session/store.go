package session

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/pkg/apiclient"
)

// SearchHistoryLimit caps the remembered product searches per session.
const SearchHistoryLimit = 5

// Store persists the convenience state of a client session: the token pair,
// the cached account and recent searches. Losing it only forces a new login.
type Store interface {
	Tokens(ctx context.Context, sessionID string) (apiclient.Tokens, error)
	SaveTokens(ctx context.Context, sessionID string, tokens apiclient.Tokens) error
	ClearTokens(ctx context.Context, sessionID string) error
	// User returns nil without error when nothing is cached.
	User(ctx context.Context, sessionID string) (*auth.User, error)
	SaveUser(ctx context.Context, sessionID string, user auth.User) error
	RecordSearch(ctx context.Context, sessionID, query string) error
	SearchHistory(ctx context.Context, sessionID string) ([]string, error)
	Clear(ctx context.Context, sessionID string) error
}

// NewID returns a fresh opaque session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether the value looks like an identifier issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// Handle binds a Store to one session and satisfies apiclient.TokenStore.
type Handle struct {
	store Store
	id    string
}

func Bind(store Store, sessionID string) Handle {
	return Handle{store: store, id: sessionID}
}

func (h Handle) ID() string {
	return h.id
}

func (h Handle) Tokens(ctx context.Context) (apiclient.Tokens, error) {
	return h.store.Tokens(ctx, h.id)
}

func (h Handle) SaveTokens(ctx context.Context, tokens apiclient.Tokens) error {
	return h.store.SaveTokens(ctx, h.id, tokens)
}

func (h Handle) ClearTokens(ctx context.Context) error {
	return h.store.ClearTokens(ctx, h.id)
}
