// ABOUTME: Sequential request-id allocation against the append-only sequence ledger
// ABOUTME: Serializes allocate+append behind one mutex so concurrent requests never mint duplicate tokens

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/caribefreight/regina-gateway/internal/store"
)

// tokenPattern matches request-id tokens of the form Q followed by digits.
var tokenPattern = regexp.MustCompile(`^Q(\d+)$`)

// retryBackoff is the pause before the single retry of the ledger read.
const retryBackoff = 500 * time.Millisecond

// Allocator derives the next request id from the sequence ledger's visible
// history and immediately reserves it. The whole read-derive-append sequence
// holds a single mutex: the underlying ledger has no transactional guard, so
// unserialized allocations could read the same snapshot and mint duplicates.
//
// The allocator also remembers every number issued this process lifetime and
// never goes below it, so a lagging ledger read cannot re-issue a token.
type Allocator struct {
	mu     sync.Mutex
	ledger store.Ledger
	logger *slog.Logger
	now    func() time.Time

	// highest numeric suffix issued by this process, 0 if none
	issuedMax int
}

// NewAllocator creates an allocator over the given ledger.
func NewAllocator(ledger store.Ledger, logger *slog.Logger) *Allocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{
		ledger: ledger,
		logger: logger.With("component", "allocator"),
		now:    time.Now,
	}
}

// Allocate reserves and returns the next request id. kind records what the
// id is being consumed for (complete or pending outcome).
func (a *Allocator) Allocate(ctx context.Context, kind string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tokens, err := a.ledger.ReadSequenceTokens(ctx)
	if err != nil {
		// Idempotent read: one short retry before giving up. The wait
		// honors cancellation; stalling here holds the allocation mutex
		// for everyone.
		timer := time.NewTimer(retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
		tokens, err = a.ledger.ReadSequenceTokens(ctx)
		if err != nil {
			return "", fmt.Errorf("reading sequence tokens: %w", err)
		}
	}

	max := a.issuedMax
	for _, tok := range tokens {
		m := tokenPattern.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	next := max + 1
	id := fmt.Sprintf("Q%04d", next)

	entry := &store.SequenceEntry{
		RequestID:  id,
		Kind:       kind,
		RecordedAt: a.now(),
	}
	if err := a.ledger.AppendSequenceToken(ctx, entry); err != nil {
		return "", fmt.Errorf("reserving request id %s: %w", id, err)
	}

	a.issuedMax = next
	a.logger.Debug("request id allocated", "request_id", id, "kind", kind)
	return id, nil
}
