package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type api interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Client wraps the account endpoints of the storefront api. Credential checks
// happen upstream.
type Client struct {
	api api
}

func NewClient(api api) *Client {
	return &Client{api: api}
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, req LoginRequest) (apiclient.Tokens, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	fields := map[string]string{}
	if req.Email == "" {
		fields["email"] = "is required"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		return apiclient.Tokens{}, pkgerrors.Fields("credentials required", fields)
	}

	var tokens apiclient.Tokens
	err := c.api.Do(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      "/auth/login",
		Body:      req,
		Resource:  "auth",
		Anonymous: true,
	}, &tokens)
	if err != nil {
		return apiclient.Tokens{}, err
	}
	if tokens.AccessToken == "" {
		return apiclient.Tokens{}, pkgerrors.New(pkgerrors.CodeDependency, "login response missing access token")
	}
	return tokens, nil
}

// Me returns the account bound to the current access token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/auth/me", Resource: "auth"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
