package backoffice

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"github.com/cardops/backoffice/internal/authclient"
	"github.com/cardops/backoffice/internal/mask"
)

// View is the dashboard view state one refresh produces.
type View struct {
	Stats          Stats      `json:"stats"`
	RecentActivity []Activity `json:"recentActivity"`
	LastUpdated    time.Time  `json:"lastUpdated"`
	Error          string     `json:"error,omitempty"`
}

// Refresher periodically rebuilds the dashboard view state from fresh
// authority snapshots. Ticks are independent, never coalesced; when two
// refreshes overlap the later-resolving one wins. Closing the refresher
// cancels its context so late responses cannot touch released state.
type Refresher struct {
	cards    CardAPI
	txns     TransactionAPI
	format   *mask.Formatter
	logger   *slog.Logger
	interval time.Duration
	size     int

	mu   sync.RWMutex
	view View

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRefresher(cards CardAPI, txns TransactionAPI, format *mask.Formatter, logger *slog.Logger, interval time.Duration, snapshotSize int) *Refresher {
	return &Refresher{
		cards:    cards,
		txns:     txns,
		format:   format,
		logger:   logger,
		interval: interval,
		size:     snapshotSize,
	}
}

// Start launches the refresh loop with an immediate first load.
func (r *Refresher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.Refresh(ctx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.wg.Add(1)
				go func() {
					defer r.wg.Done()
					r.Refresh(ctx)
				}()
			}
		}
	}()
}

// Refresh fetches one snapshot pair and replaces the view state wholesale.
// It may also be invoked manually between ticks.
func (r *Refresher) Refresh(ctx context.Context) {
	q := authclient.ListQuery{Page: 0, Size: r.size, SortBy: "createdAt", SortDir: "desc"}

	cardsPage, err := r.cards.ListCards(ctx, q)
	if err != nil {
		r.fail(ctx, err)
		return
	}
	transactionsPage, err := r.txns.ListTransactions(ctx, q)
	if err != nil {
		r.fail(ctx, err)
		return
	}
	if ctx.Err() != nil {
		// view released while the fetch was outstanding; drop the result
		return
	}

	view := View{
		Stats:          CalculateStats(cardsPage.Content, transactionsPage.Content),
		RecentActivity: RecentActivity(cardsPage.Content, transactionsPage.Content, r.format),
		LastUpdated:    time.Now(),
	}

	r.mu.Lock()
	r.view = view
	r.mu.Unlock()
}

func (r *Refresher) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	r.logger.Error("dashboard refresh failed", "err", err)
	r.mu.Lock()
	r.view.Error = "could not load dashboard data"
	r.mu.Unlock()
}

// View returns the current view state.
func (r *Refresher) View() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// Close stops the loop and waits for in-flight refreshes to finish.
func (r *Refresher) Close() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}
