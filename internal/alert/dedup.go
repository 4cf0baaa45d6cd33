package alert

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/msfttoler/sports/pkg/models"
)

// Deduplicator suppresses repeat alerts for the same opportunity within
// a TTL. A refresh re-detects every live opportunity, so without this each
// refresh would re-alert.
type Deduplicator struct {
	ttl  time.Duration
	now  func() time.Time
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewDeduplicator creates a new deduplicator
func NewDeduplicator(ttl time.Duration) *Deduplicator {
	return &Deduplicator{
		ttl:  ttl,
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
}

// ShouldAlert returns true if key hasn't been alerted within the TTL and
// marks it as alerted
func (d *Deduplicator) ShouldAlert(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.evict(now)

	if expires, ok := d.seen[key]; ok && now.Before(expires) {
		return false
	}
	d.seen[key] = now.Add(d.ttl)
	return true
}

// Forget clears key so the next ShouldAlert for it succeeds
func (d *Deduplicator) Forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
}

// Len returns the number of keys currently suppressed
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func (d *Deduplicator) evict(now time.Time) {
	for k, expires := range d.seen {
		if !now.Before(expires) {
			delete(d.seen, k)
		}
	}
}

// ArbitrageKey identifies an opportunity by event, market and the books
// involved. Price moves on the same books do not produce a new key.
// Format: alert:arb:{event_id}:{market}:{books_hash}
func ArbitrageKey(opp models.ArbitrageOpportunity) string {
	books := make([]string, 0, len(opp.Legs))
	for _, leg := range opp.Legs {
		books = append(books, leg.Bookmaker)
	}
	sort.Strings(books)

	hash := sha256.Sum256([]byte(strings.Join(books, ",")))
	return fmt.Sprintf("alert:arb:%s:%s:%x", opp.EventID, opp.Market, hash[:8])
}

// ValueBetKey identifies a value bet by event, side and book
func ValueBetKey(bet models.ValueBet) string {
	return fmt.Sprintf("alert:value:%s:%s:%s", bet.EventID, bet.Team, bet.BestBookmaker)
}
