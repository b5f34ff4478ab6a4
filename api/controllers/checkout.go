package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/app"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type promoRequest struct {
	Code string `json:"code" validate:"required,max=50"`
}

// checkoutHandler adapts one flow transition to an http handler.
func checkoutHandler(sessions Sessions, logg *logger.Logger, step func(*http.Request, *app.State) (checkout.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := step(r, state)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutBegin starts a fresh checkout against the current server cart.
func CheckoutBegin(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(sessions, logg, func(r *http.Request, state *app.State) (checkout.View, error) {
		return state.Checkout.Begin(r.Context())
	})
}

func CheckoutGet(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(sessions, logg, func(_ *http.Request, state *app.State) (checkout.View, error) {
		return state.Checkout.View(), nil
	})
}

func CheckoutDelivery(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkout.DeliveryInput
		if err := validators.DecodeJSON(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutHandler(sessions, logg, func(r *http.Request, state *app.State) (checkout.View, error) {
			return state.Checkout.SetDelivery(r.Context(), payload)
		})(w, r)
	}
}

// CheckoutAddress records the address step. Field validation happens in the
// flow so failures land on the view as field errors.
func CheckoutAddress(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkout.AddressInput
		if err := validators.DecodeJSON(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutHandler(sessions, logg, func(r *http.Request, state *app.State) (checkout.View, error) {
			return state.Checkout.SetAddress(r.Context(), payload)
		})(w, r)
	}
}

func CheckoutPayment(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkout.PaymentInput
		if err := validators.DecodeJSON(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutHandler(sessions, logg, func(r *http.Request, state *app.State) (checkout.View, error) {
			return state.Checkout.SetPayment(r.Context(), payload)
		})(w, r)
	}
}

func CheckoutApplyPromo(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload promoRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutHandler(sessions, logg, func(r *http.Request, state *app.State) (checkout.View, error) {
			return state.Checkout.ApplyPromo(r.Context(), payload.Code)
		})(w, r)
	}
}

func CheckoutRemovePromo(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(sessions, logg, func(_ *http.Request, state *app.State) (checkout.View, error) {
		return state.Checkout.RemovePromo()
	})
}

func CheckoutBack(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(sessions, logg, func(_ *http.Request, state *app.State) (checkout.View, error) {
		return state.Checkout.Back()
	})
}

// CheckoutSubmit places the order. A second submit while one is in flight is
// rejected with CONFLICT instead of creating another order.
func CheckoutSubmit(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := state.Checkout.Submit(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := state.Watch(r.Context(), result.OrderID); err != nil {
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "starting order watch failed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
