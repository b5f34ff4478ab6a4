package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type apiFunc func(ctx context.Context, req apiclient.Request, out any) error

func (f apiFunc) Do(ctx context.Context, req apiclient.Request, out any) error {
	return f(ctx, req, out)
}

func decodeInto(t *testing.T, raw string, out any) {
	t.Helper()
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
}

func TestLoginIsAnonymousAndNormalizesEmail(t *testing.T) {
	t.Parallel()

	var captured apiclient.Request
	client := NewClient(apiFunc(func(_ context.Context, req apiclient.Request, out any) error {
		captured = req
		decodeInto(t, `{"access_token":"a","refresh_token":"r","token_type":"bearer"}`, out)
		return nil
	}))

	tokens, err := client.Login(context.Background(), LoginRequest{Email: " Buyer@Example.com ", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !captured.Anonymous || captured.Path != "/auth/login" {
		t.Fatalf("unexpected request %+v", captured)
	}
	if body := captured.Body.(LoginRequest); body.Email != "buyer@example.com" {
		t.Fatalf("expected normalized email, got %q", body.Email)
	}
	if tokens.AccessToken != "a" || tokens.RefreshToken != "r" {
		t.Fatalf("unexpected tokens %+v", tokens)
	}
}

func TestLoginRejectsMissingCredentialsWithoutCalling(t *testing.T) {
	t.Parallel()

	client := NewClient(apiFunc(func(context.Context, apiclient.Request, any) error {
		t.Fatalf("api must not be called")
		return nil
	}))
	_, err := client.Login(context.Background(), LoginRequest{})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoginPropagatesUpstreamError(t *testing.T) {
	t.Parallel()

	upstream := pkgerrors.New(pkgerrors.CodeUnauthorized, "Incorrect email or password")
	client := NewClient(apiFunc(func(context.Context, apiclient.Request, any) error { return upstream }))
	_, err := client.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "x"})
	if !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error verbatim, got %v", err)
	}
}

func TestMeDecodesUser(t *testing.T) {
	t.Parallel()

	client := NewClient(apiFunc(func(_ context.Context, req apiclient.Request, out any) error {
		if req.Path != "/auth/me" || req.Anonymous {
			t.Fatalf("unexpected request %+v", req)
		}
		decodeInto(t, `{"id":7,"email":"a@b.c","role":"customer","first_name":"Aru","last_name":"Sadyk","phone":"+7 700 000 0000"}`, out)
		return nil
	}))
	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user.ID != 7 || user.FullName() != "Aru Sadyk" {
		t.Fatalf("unexpected user %+v", user)
	}
}
