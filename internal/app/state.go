package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/internal/wallet"
	"github.com/angelmondragon/storefront/internal/wishlist"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// State is everything the BFF holds for one client session. The cart, the
// checkout flow and the order watches live here instead of in any global.
type State struct {
	SessionID string

	Auth      *auth.Client
	Catalog   *catalog.Client
	Wallet    *wallet.Client
	Wishlist  *wishlist.Client
	OrdersAPI *orders.Client

	Cart         *cart.Store
	Checkout     *checkout.Flow
	Orders       *orders.Lifecycle
	WishlistBulk *wishlist.BulkAdder

	sessions session.Store
	watcher  *orders.Watcher
	logg     *logger.Logger

	seen atomic.Int64

	mu      sync.Mutex
	watches map[int64]*orders.Watch
	closed  bool
}

func newState(ctx context.Context, deps Deps, sessionID string) (*State, error) {
	state := &State{
		SessionID: sessionID,
		sessions:  deps.Sessions,
		logg:      deps.Logger,
		watches:   map[int64]*orders.Watch{},
	}

	api := deps.API.Bind(session.Bind(deps.Sessions, sessionID), state.onLogout)
	state.Auth = auth.NewClient(api)
	state.Catalog = catalog.NewClient(api)
	state.Wallet = wallet.NewClient(api)
	state.Wishlist = wishlist.NewClient(api)
	state.OrdersAPI = orders.NewClient(api)

	var err error
	state.Cart, err = cart.NewStore(cart.StoreParams{
		Resource:        cart.NewClient(api),
		Logger:          deps.Logger,
		Metrics:         deps.Metrics,
		RefetchAttempts: deps.RefetchAttempts,
		RefetchBackoff:  deps.RefetchBackoff,
	})
	if err != nil {
		return nil, err
	}
	policy := deps.Policy
	state.Checkout, err = checkout.NewFlow(checkout.FlowParams{
		Cart:   state.Cart,
		Orders: state.OrdersAPI,
		Wallet: state.Wallet,
		Promos: deps.Promos,
		Policy: &policy,
		Logger: deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	state.Orders, err = orders.NewLifecycle(orders.LifecycleParams{Orders: state.OrdersAPI, Cart: state.Cart, Logger: deps.Logger})
	if err != nil {
		return nil, err
	}
	state.WishlistBulk, err = wishlist.NewBulkAdder(wishlist.BulkParams{Wishlist: state.Wishlist, Cart: state.Cart, Logger: deps.Logger})
	if err != nil {
		return nil, err
	}
	state.watcher, err = orders.NewWatcher(orders.WatcherParams{
		Fetcher:  state.OrdersAPI,
		Logger:   deps.Logger,
		Metrics:  deps.Metrics,
		Interval: deps.PollInterval,
	})
	if err != nil {
		return nil, err
	}

	deps.Logger.Debug(deps.Logger.WithSessionID(ctx, sessionID), "session state created")
	return state, nil
}

// Login exchanges credentials for tokens, caches the account and loads the
// server cart.
func (s *State) Login(ctx context.Context, req auth.LoginRequest) (*auth.User, error) {
	tokens, err := s.Auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SaveTokens(ctx, s.SessionID, tokens); err != nil {
		return nil, err
	}
	user, err := s.Auth.Me(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SaveUser(ctx, s.SessionID, *user); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "caching user failed")
	}
	if _, err := s.Cart.Fetch(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "initial cart load failed")
	}
	s.logg.Info(s.logg.WithField(ctx, "user_id", user.ID), "session logged in")
	return user, nil
}

// CurrentUser serves the cached account, reading it from the api on a miss.
func (s *State) CurrentUser(ctx context.Context) (*auth.User, error) {
	if user, err := s.sessions.User(ctx, s.SessionID); err == nil && user != nil {
		return user, nil
	}
	user, err := s.Auth.Me(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SaveUser(ctx, s.SessionID, *user); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "caching user failed")
	}
	return user, nil
}

// Search runs a product search and remembers the query.
func (s *State) Search(ctx context.Context, q string) ([]catalog.Product, error) {
	products, err := s.Catalog.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.RecordSearch(ctx, s.SessionID, q); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "recording search failed")
	}
	return products, nil
}

func (s *State) SearchHistory(ctx context.Context) ([]string, error) {
	return s.sessions.SearchHistory(ctx, s.SessionID)
}

// Watch returns the running poll of an order, starting one when none is live.
// The poll outlives the request that started it.
func (s *State) Watch(ctx context.Context, orderID int64) (*orders.Watch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session closed")
	}
	if watch, ok := s.watches[orderID]; ok && watch.Live() {
		return watch, nil
	}
	watch := s.watcher.Watch(context.WithoutCancel(ctx), orderID)
	s.watches[orderID] = watch
	return watch, nil
}

// LatestOrder returns the freshest known snapshot of an order. A poll that
// has ended is replaced by a new one, which fetches immediately.
func (s *State) LatestOrder(ctx context.Context, orderID int64) (orders.Order, error) {
	if orderID <= 0 {
		return orders.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	watch, err := s.Watch(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	order, err := watch.Wait(ctx)
	if err != nil && order.ID != 0 && pkgerrors.IsRetryable(err) {
		// transient poll failure, the last snapshot still stands
		return order, nil
	}
	return order, err
}

func (s *State) StopWatch(orderID int64) {
	s.mu.Lock()
	watch, ok := s.watches[orderID]
	delete(s.watches, orderID)
	s.mu.Unlock()
	if ok {
		watch.Stop()
	}
}

// ActiveWatches lists the orders currently being polled.
func (s *State) ActiveWatches() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.watches))
	for id, watch := range s.watches {
		if watch.Live() {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *State) touch(now time.Time) {
	s.seen.Store(now.UnixNano())
}

func (s *State) lastSeen() time.Time {
	return time.Unix(0, s.seen.Load())
}

// close stops every poll. The state must not start new ones afterwards.
func (s *State) close() {
	s.mu.Lock()
	s.closed = true
	watches := s.watches
	s.watches = map[int64]*orders.Watch{}
	s.mu.Unlock()
	for _, watch := range watches {
		watch.Stop()
	}
}

// onLogout runs when the api client gives up on the session's tokens.
func (s *State) onLogout(ctx context.Context) {
	s.Cart.Reset()
	s.Checkout.Reset()
	s.mu.Lock()
	watches := s.watches
	s.watches = map[int64]*orders.Watch{}
	s.mu.Unlock()
	for _, watch := range watches {
		watch.Stop()
	}
	if err := s.sessions.Clear(ctx, s.SessionID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "clearing session after logout failed")
	}
	s.logg.Info(s.logg.WithSessionID(ctx, s.SessionID), "session logged out by api")
}
