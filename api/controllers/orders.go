package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type repeatResponse struct {
	OrderID int64 `json:"order_id"`
	batchResponse
}

func OrderList(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := state.OrdersAPI.List(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderGet serves the latest polled snapshot of an order, starting a poll
// when none is running.
func OrderGet(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := state.LatestOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderCancel cancels an order the session knows to be cancellable and
// returns the state the server actually landed on.
func OrderCancel(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		known, err := state.LatestOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := state.Orders.Cancel(r.Context(), known)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.Terminal() {
			state.StopWatch(id)
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderRepeat copies the lines of an order into the cart.
func OrderRepeat(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := state.LatestOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := state.Orders.Repeat(r.Context(), order)
		writeBatch(r, w, logg, err, func(stale bool) any {
			batch := newBatchResponse(result.BatchResult)
			batch.Stale = stale
			return repeatResponse{OrderID: result.OrderID, batchResponse: batch}
		})
	}
}

func OrderTrack(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tracking := strings.TrimSpace(chi.URLParam(r, "tracking"))
		if tracking == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Fields("invalid tracking number", map[string]string{"tracking_number": "is required"}))
			return
		}
		order, err := state.OrdersAPI.Track(r.Context(), tracking)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
