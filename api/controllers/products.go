package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"github.com/angelmondragon/storefront/pkg/validation"
)

const maxSearchQueryLen = 200

// ProductList serves a filtered, paginated page of the catalog.
func ProductList(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := parseProductFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := state.Catalog.List(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func ProductGet(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
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
		product, err := state.Catalog.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductSearch runs a full-text search and records it in the session's
// search history.
func ProductSearch(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchQueryLen)
		if q == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Fields("invalid search", map[string]string{"q": "is required"}))
			return
		}
		products, err := state.Search(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func SearchHistory(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := stateFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		history, err := state.SearchHistory(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if history == nil {
			history = []string{}
		}
		responses.WriteSuccess(w, history)
	}
}

func parseProductFilter(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	filter := catalog.Filter{
		Category:  validators.SanitizeString(q.Get("category"), 100),
		Search:    validators.SanitizeString(q.Get("search"), maxSearchQueryLen),
		SortBy:    strings.TrimSpace(q.Get("sort_by")),
		SortOrder: strings.ToLower(strings.TrimSpace(q.Get("sort_order"))),
	}
	if raw := strings.TrimSpace(q.Get("seller_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return catalog.Filter{}, pkgerrors.Fields("invalid filter", map[string]string{"seller_id": "must be a positive integer"})
		}
		filter.SellerID = id
	}
	var err error
	if filter.MinPrice, err = parsePrice(q.Get("min_price"), "min_price"); err != nil {
		return catalog.Filter{}, err
	}
	if filter.MaxPrice, err = parsePrice(q.Get("max_price"), "max_price"); err != nil {
		return catalog.Filter{}, err
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return catalog.Filter{}, pkgerrors.Fields("invalid filter", map[string]string{"min_price": "must not exceed max_price"})
	}
	if err := validation.Struct(filter); err != nil {
		return catalog.Filter{}, err
	}
	return filter, nil
}

func parsePrice(raw, field string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return nil, pkgerrors.Fields("invalid filter", map[string]string{field: "must be a non-negative number"})
	}
	return &value, nil
}

func parsePage(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
	if err != nil {
		return pagination.Params{}, err
	}
	size, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, PageSize: size}, nil
}
