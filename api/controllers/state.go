package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/app"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Sessions resolves the per-session BFF state behind a request.
type Sessions interface {
	Get(ctx context.Context, sessionID string) (*app.State, error)
	Drop(ctx context.Context, sessionID string) error
}

func stateFor(r *http.Request, sessions Sessions) (*app.State, error) {
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session registry unavailable")
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return sessions.Get(r.Context(), sessionID)
}
