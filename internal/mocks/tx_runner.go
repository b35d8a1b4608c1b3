package mocks

import (
	"context"
	"sync"

	"github.com/imunetrack/imunetrack-api/internal/store"
)

// TxRunner implements store.TxRunner without a database. The callback
// receives a nil *sql.Tx.
type TxRunner struct {
	// BeginErr, when set, is returned before the callback runs.
	BeginErr error

	mu    sync.Mutex
	calls int
}

var _ store.TxRunner = (*TxRunner)(nil)

// RunInTx implements store.TxRunner.
func (r *TxRunner) RunInTx(ctx context.Context, fn store.TxFn) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if r.BeginErr != nil {
		return r.BeginErr
	}
	return fn(ctx, nil)
}

// Calls reports how many transactions were started.
func (r *TxRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
