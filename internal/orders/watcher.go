package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

// DefaultPollInterval is how often a non-terminal order is re-read.
const DefaultPollInterval = 10 * time.Second

// Fetcher reads one order from the storefront api.
type Fetcher interface {
	Get(ctx context.Context, id int64) (*Order, error)
}

// WatcherParams configure a Watcher.
type WatcherParams struct {
	Fetcher  Fetcher
	Logger   *logger.Logger
	Metrics  *metrics.Storefront
	Interval time.Duration
}

// Watcher starts order status polls.
type Watcher struct {
	fetcher  Fetcher
	logg     *logger.Logger
	metrics  *metrics.Storefront
	interval time.Duration
}

func NewWatcher(params WatcherParams) (*Watcher, error) {
	if params.Fetcher == nil {
		return nil, fmt.Errorf("order fetcher required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		fetcher:  params.Fetcher,
		logg:     params.Logger,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Watch is the handle of one running poll. It stops on its own once a terminal
// status or a non-retryable error is observed, and on Stop or ctx cancellation.
// No request is issued after it stops.
type Watch struct {
	orderID int64
	cancel  context.CancelFunc
	done    chan struct{}
	ready   chan struct{}
	updates chan Order

	readyOnce sync.Once

	mu     sync.RWMutex
	latest *Order
	err    error
}

type fetchResult struct {
	order *Order
	err   error
}

// Watch fetches the order immediately and then every interval until it stops.
func (w *Watcher) Watch(ctx context.Context, orderID int64) *Watch {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	watch := &Watch{
		orderID: orderID,
		cancel:  cancel,
		done:    make(chan struct{}),
		ready:   make(chan struct{}),
		updates: make(chan Order, 1),
	}
	go w.run(w.logg.WithOrderID(ctx, orderID), watch)
	return watch
}

func (w *Watcher) run(ctx context.Context, watch *Watch) {
	defer func() {
		watch.cancel()
		watch.markReady()
		close(watch.updates)
		close(watch.done)
	}()

	results := make(chan fetchResult, 1)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// at most one fetch is outstanding, so the buffered send never blocks
	inflight := true
	w.launch(ctx, watch.orderID, results)
	for {
		select {
		case <-ctx.Done():
			w.logg.Debug(ctx, "order watch stopped")
			return
		case <-ticker.C:
			if inflight {
				w.metrics.IncPollTick(metrics.PollSkipped)
				w.logg.Debug(ctx, "order poll tick skipped, previous fetch still in flight")
				continue
			}
			inflight = true
			w.launch(ctx, watch.orderID, results)
		case res := <-results:
			inflight = false
			if stop := w.apply(ctx, watch, res); stop {
				return
			}
		}
	}
}

func (w *Watcher) launch(ctx context.Context, orderID int64, results chan<- fetchResult) {
	go func() {
		order, err := w.fetcher.Get(ctx, orderID)
		results <- fetchResult{order: order, err: err}
	}()
}

// apply records a fetch result and reports whether polling should end.
func (w *Watcher) apply(ctx context.Context, watch *Watch, res fetchResult) bool {
	if ctx.Err() != nil {
		return true
	}
	if res.err == nil && res.order == nil {
		res.err = pkgerrors.New(pkgerrors.CodeDependency, "empty order response")
	}
	if res.err != nil {
		w.metrics.IncPollTick(metrics.PollError)
		watch.setErr(res.err)
		if pkgerrors.IsRetryable(res.err) {
			w.logg.Warn(w.logg.WithField(ctx, "error", res.err.Error()), "order poll failed, retrying next tick")
			return false
		}
		w.logg.Error(ctx, "order poll failed permanently", res.err)
		return true
	}

	watch.publish(*res.order)
	if res.order.Terminal() {
		w.metrics.IncPollTick(metrics.PollTerminal)
		w.logg.Info(w.logg.WithField(ctx, "status", res.order.Status.String()), "order reached terminal status")
		return true
	}
	w.metrics.IncPollTick(metrics.PollFetched)
	return false
}

func (h *Watch) OrderID() int64 {
	return h.orderID
}

// Stop cancels the poll and waits for it to exit.
func (h *Watch) Stop() {
	h.cancel()
	<-h.done
}

// Done is closed once polling has ended.
func (h *Watch) Done() <-chan struct{} {
	return h.done
}

// Updates delivers the newest snapshot; a slow reader only sees the latest.
// It is closed when polling ends.
func (h *Watch) Updates() <-chan Order {
	return h.updates
}

// Latest returns the last fetched order and the last fetch error. The error is
// cleared by the next successful fetch.
func (h *Watch) Latest() (Order, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		if h.err != nil {
			return Order{}, h.err
		}
		return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not loaded yet")
	}
	return *h.latest, h.err
}

// Wait blocks until the first fetch has completed and returns Latest.
func (h *Watch) Wait(ctx context.Context) (Order, error) {
	select {
	case <-h.ready:
		return h.Latest()
	case <-ctx.Done():
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "waiting for order")
	}
}

// Live reports whether the poll is still running.
func (h *Watch) Live() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *Watch) publish(order Order) {
	h.mu.Lock()
	h.latest = &order
	h.err = nil
	h.mu.Unlock()
	h.markReady()

	// keep only the newest snapshot buffered
	select {
	case <-h.updates:
	default:
	}
	h.updates <- order
}

func (h *Watch) setErr(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	h.markReady()
}

func (h *Watch) markReady() {
	h.readyOnce.Do(func() { close(h.ready) })
}
