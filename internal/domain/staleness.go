package domain

import "time"

// Staleness tier of a cached quote, derived from its age
type Tier int

const (
	// TierFresh: usable as-is, no fallback needed
	TierFresh Tier = iota
	// TierStale: usable fallback, medium confidence
	TierStale
	// TierExpired: last-resort fallback, low confidence
	TierExpired
	// TierTooOld: never served, falls through to historical average
	TierTooOld
)

func (t Tier) String() string {
	switch t {
	case TierFresh:
		return "fresh"
	case TierStale:
		return "stale"
	case TierExpired:
		return "expired"
	default:
		return "too-old"
	}
}

// StalenessThresholds define the age cutoffs between tiers.
// An entry is fresh below Fresh, stale below Stale, expired below MaxAge,
// and too old from MaxAge on.
type StalenessThresholds struct {
	Fresh  time.Duration
	Stale  time.Duration
	MaxAge time.Duration
}

// DefaultStalenessThresholds returns the product defaults: 1h / 24h / 7d
func DefaultStalenessThresholds() StalenessThresholds {
	return StalenessThresholds{
		Fresh:  time.Hour,
		Stale:  24 * time.Hour,
		MaxAge: 7 * 24 * time.Hour,
	}
}

// Classify maps an entry age onto its staleness tier
func (th StalenessThresholds) Classify(age time.Duration) Tier {
	switch {
	case age < th.Fresh:
		return TierFresh
	case age < th.Stale:
		return TierStale
	case age < th.MaxAge:
		return TierExpired
	default:
		return TierTooOld
	}
}

// AgedQuote is a cache entry together with its derived staleness
type AgedQuote struct {
	Quote
	Age  time.Duration `json:"age_seconds"`
	Tier Tier          `json:"-"`
}

// NewAgedQuote classifies a quote against the given thresholds as of now
func NewAgedQuote(q *Quote, th StalenessThresholds, now time.Time) *AgedQuote {
	age := now.Sub(q.LastUpdated)
	return &AgedQuote{
		Quote: *q,
		Age:   age,
		Tier:  th.Classify(age),
	}
}

func (a *AgedQuote) IsFresh() bool   { return a.Tier == TierFresh }
func (a *AgedQuote) IsStale() bool   { return a.Tier == TierStale }
func (a *AgedQuote) IsExpired() bool { return a.Tier == TierExpired }
func (a *AgedQuote) IsTooOld() bool  { return a.Tier == TierTooOld }
