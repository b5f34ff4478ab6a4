package cart

import (
	"context"
	"strconv"

	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Line is a product and quantity to put in the cart.
type Line struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// LineResult reports the outcome of adding one line.
type LineResult struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Added     bool  `json:"added"`
	Err       error `json:"-"`
}

// BatchResult is the per-line outcome of AddAll plus the cart fetched after it.
type BatchResult struct {
	Lines     []LineResult `json:"lines"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Cart      Projection   `json:"cart"`
}

// Err combines the per-line failures, or nil when every line was added.
func (b BatchResult) Err() error {
	var err error
	for _, line := range b.Lines {
		if line.Err != nil {
			err = multierr.Append(err, pkgerrors.Wrap(pkgerrors.CodeOf(line.Err), line.Err,
				"product "+strconv.FormatInt(line.ProductID, 10)))
		}
	}
	return err
}

// AddAll adds lines one at a time, in order, and keeps going past failures.
// The cart is fetched once after the last add. The returned error is non-nil
// only when that fetch fails; per-line failures are in the result.
func (s *Store) AddAll(ctx context.Context, lines []Line) (BatchResult, error) {
	result := BatchResult{Lines: make([]LineResult, 0, len(lines))}
	for _, line := range lines {
		outcome := LineResult{ProductID: line.ProductID, Quantity: line.Quantity}
		outcome.Err = s.addLine(ctx, line)
		if outcome.Err == nil {
			outcome.Added = true
			result.Succeeded++
		} else {
			result.Failed++
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"product_id": line.ProductID,
				"error":      outcome.Err.Error(),
			}), "batch cart add failed")
		}
		result.Lines = append(result.Lines, outcome)
	}

	if result.Succeeded == 0 {
		result.Cart = s.Snapshot()
		return result, nil
	}
	p, err := s.refreshAfterWrite(ctx)
	result.Cart = p
	return result, err
}

func (s *Store) addLine(ctx context.Context, line Line) error {
	if err := validateQuantity(line.Quantity); err != nil {
		return err
	}
	if line.ProductID <= 0 {
		return pkgerrors.Fields("invalid product", map[string]string{"product_id": "must be a positive id"})
	}
	release, err := s.acquire(s.productKeys(line.ProductID)...)
	if err != nil {
		return err
	}
	defer release()
	return s.resource.AddItem(ctx, line.ProductID, line.Quantity)
}
