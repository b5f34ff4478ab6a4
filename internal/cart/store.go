package cart

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const (
	defaultRefetchAttempts = 3
	defaultRefetchBackoff  = 200 * time.Millisecond
	wholeCartKey           = "cart"
)

// Resource is the server side of the cart.
type Resource interface {
	Get(ctx context.Context) (Projection, error)
	AddItem(ctx context.Context, productID int64, quantity int) error
	UpdateItem(ctx context.Context, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, itemID int64) error
	Clear(ctx context.Context) error
}

// StoreParams bundles the dependencies of a cart Store.
type StoreParams struct {
	Resource        Resource
	Logger          *logger.Logger
	Metrics         *metrics.Storefront
	RefetchAttempts uint64
	RefetchBackoff  time.Duration
}

// Store holds the cart projection of one session. Every mutation is followed
// by a full fetch; the projection is never edited locally.
type Store struct {
	resource Resource
	logg     *logger.Logger
	metrics  *metrics.Storefront
	attempts uint64
	backoff  time.Duration

	seq   atomic.Uint64
	group singleflight.Group

	mu       sync.Mutex
	current  Projection
	stale    bool
	inflight map[string]struct{}
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Resource == nil {
		return nil, fmt.Errorf("cart resource required")
	}
	attempts := params.RefetchAttempts
	if attempts == 0 {
		attempts = defaultRefetchAttempts
	}
	backoff := params.RefetchBackoff
	if backoff <= 0 {
		backoff = defaultRefetchBackoff
	}
	return &Store{
		resource: params.Resource,
		logg:     params.Logger,
		metrics:  params.Metrics,
		attempts: attempts,
		backoff:  backoff,
		current:  Empty(),
		inflight: map[string]struct{}{},
	}, nil
}

// Snapshot returns the projection currently held.
func (s *Store) Snapshot() Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// Stale reports whether the last post-mutation refresh failed.
func (s *Store) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Reset drops the projection, e.g. on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Empty()
	// fetches issued before the reset must not land afterwards
	s.current.Version = s.seq.Load()
	s.stale = false
}

// Fetch loads the server cart. Concurrent calls share one request, which is
// detached from the cancellation of whichever caller issued it; the upstream
// client still bounds it with its per-call timeout. Each caller stops waiting
// when its own ctx ends.
func (s *Store) Fetch(ctx context.Context) (Projection, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan("fetch", func() (any, error) {
		return s.load(shared)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return s.Snapshot(), res.Err
		}
		return res.Val.(Projection), nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

// Add puts quantity units of productID in the cart.
func (s *Store) Add(ctx context.Context, productID int64, quantity int) (Projection, error) {
	if err := validateQuantity(quantity); err != nil {
		return s.Snapshot(), err
	}
	if productID <= 0 {
		return s.Snapshot(), pkgerrors.Fields("invalid product", map[string]string{"product_id": "must be a positive id"})
	}
	return s.mutate(ctx, s.productKeys(productID), func(ctx context.Context) error {
		return s.resource.AddItem(ctx, productID, quantity)
	})
}

// Update sets the quantity of an existing cart line addressed by cart-item id.
func (s *Store) Update(ctx context.Context, itemID int64, quantity int) (Projection, error) {
	if err := validateQuantity(quantity); err != nil {
		return s.Snapshot(), err
	}
	keys, err := s.itemKeys(itemID)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.mutate(ctx, keys, func(ctx context.Context) error {
		return s.resource.UpdateItem(ctx, itemID, quantity)
	})
}

// Remove deletes a cart line addressed by cart-item id.
func (s *Store) Remove(ctx context.Context, itemID int64) (Projection, error) {
	keys, err := s.itemKeys(itemID)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.mutate(ctx, keys, func(ctx context.Context) error {
		return s.resource.RemoveItem(ctx, itemID)
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) (Projection, error) {
	return s.mutate(ctx, []string{wholeCartKey}, s.resource.Clear)
}

func (s *Store) mutate(ctx context.Context, keys []string, op func(context.Context) error) (Projection, error) {
	release, err := s.acquire(keys...)
	if err != nil {
		return s.Snapshot(), err
	}
	defer release()

	ctx = s.logg.WithField(ctx, "cart_op", keys[0])
	if err := op(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart mutation failed")
		return s.Snapshot(), err
	}
	return s.refreshAfterWrite(ctx)
}

// refreshAfterWrite fetches the cart strictly after a successful mutation,
// retrying retryable failures. It bypasses the fetch group so a fetch issued
// before the mutation cannot stand in for it.
func (s *Store) refreshAfterWrite(ctx context.Context) (Projection, error) {
	var latest Projection
	attempt := 0
	backoff := retry.WithMaxRetries(s.attempts-1, retry.NewConstant(s.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			s.metrics.IncRefetchRetry()
		}
		p, err := s.load(ctx)
		if err != nil {
			if pkgerrors.IsRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		latest = p
		return nil
	})
	if err != nil {
		s.mu.Lock()
		s.stale = true
		s.mu.Unlock()
		s.metrics.IncStaleCart()
		s.logg.Error(s.logg.WithField(ctx, "attempts", attempt), "cart refresh after mutation failed", err)
		return s.Snapshot(), pkgerrors.Wrap(pkgerrors.CodeStale, err, "cart updated but the latest cart could not be loaded").
			WithDetails(map[string]any{"attempts": attempt})
	}
	return latest, nil
}

// load issues one fetch stamped with the next sequence number and applies it
// unless a newer fetch already landed.
func (s *Store) load(ctx context.Context) (Projection, error) {
	seq := s.seq.Add(1)
	fetched, err := s.resource.Get(ctx)
	if err != nil {
		return Projection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, applied := Replace(s.current, fetched, seq)
	if applied {
		s.current = next
		s.stale = false
	} else {
		s.logg.Debug(s.logg.WithField(ctx, "seq", seq), "discarded out-of-order cart fetch")
	}
	return s.current.clone(), nil
}

// acquire marks every key in flight, or none of them when any is already
// taken. A line is guarded under both its product and its cart-item key, so
// an add of a product already in the cart and an update of that line exclude
// each other.
func (s *Store) acquire(keys ...string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, clearing := s.inflight[wholeCartKey]
	for _, key := range keys {
		_, busy := s.inflight[key]
		if busy || clearing || (key == wholeCartKey && len(s.inflight) > 0) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a cart update for this item is already in progress").
				WithDetails(map[string]any{"key": key})
		}
	}
	for _, key := range keys {
		s.inflight[key] = struct{}{}
	}
	return func() {
		s.mu.Lock()
		for _, key := range keys {
			delete(s.inflight, key)
		}
		s.mu.Unlock()
	}, nil
}

// productKeys are the guard keys of an add: the product, plus its cart line
// when the product is already in the cart.
func (s *Store) productKeys(productID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := []string{productKey(productID)}
	if item, ok := s.current.ItemForProduct(productID); ok {
		keys = append(keys, itemKey(item.ID))
	}
	return keys
}

// itemKeys are the guard keys of an update or remove. Unknown cart-item ids
// fail before any network call.
func (s *Store) itemKeys(itemID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.current.Item(itemID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found").
			WithDetails(map[string]any{"item_id": itemID})
	}
	return []string{itemKey(itemID), productKey(item.ProductID)}, nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return pkgerrors.Fields("invalid quantity", map[string]string{"quantity": "must be at least 1"})
	}
	return nil
}

func itemKey(itemID int64) string {
	return "item:" + strconv.FormatInt(itemID, 10)
}

func productKey(productID int64) string {
	return "product:" + strconv.FormatInt(productID, 10)
}
