package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type batchLineResponse struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Added     bool   `json:"added"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

type batchResponse struct {
	Lines     []batchLineResponse `json:"lines"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Cart      cart.Projection     `json:"cart"`
	Stale     bool                `json:"stale"`
}

func newBatchResponse(result cart.BatchResult) batchResponse {
	resp := batchResponse{
		Lines:     make([]batchLineResponse, 0, len(result.Lines)),
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Cart:      result.Cart,
	}
	for _, line := range result.Lines {
		out := batchLineResponse{ProductID: line.ProductID, Quantity: line.Quantity, Added: line.Added}
		if line.Err != nil {
			out.Code = string(pkgerrors.CodeOf(line.Err))
			if typed := pkgerrors.As(line.Err); typed != nil {
				out.Error = typed.Message()
			} else {
				out.Error = "unexpected error"
			}
		}
		resp.Lines = append(resp.Lines, out)
	}
	return resp
}

// writeBatch renders a batch outcome. A stale cart still reports every line,
// with 202 since the adds landed upstream but the cart could not be reloaded.
func writeBatch(r *http.Request, w http.ResponseWriter, logg *logger.Logger, err error, render func(stale bool) any) {
	switch {
	case err == nil:
		responses.WriteSuccess(w, render(false))
	case pkgerrors.CodeOf(err) == pkgerrors.CodeStale:
		logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "batch cart add left a stale cart")
		responses.WriteSuccessStatus(w, http.StatusAccepted, render(true))
	default:
		responses.WriteError(r.Context(), logg, w, err)
	}
}
