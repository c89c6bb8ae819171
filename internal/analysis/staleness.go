package analysis

import "time"

// Staleness describes how long a repository has been inactive.
type Staleness struct {
	LastActivity *time.Time
	DaysSince    *int
	Stale        bool
}

// ComputeStaleness measures the time since last against now. A nil last means
// no activity signal was found; the result then has no day count and is not
// stale. The repository is stale once the elapsed time is strictly greater
// than threshold, so exactly threshold old is still alive.
func ComputeStaleness(last *time.Time, now time.Time, threshold time.Duration) Staleness {
	if last == nil {
		return Staleness{}
	}
	elapsed := now.Sub(*last)
	if elapsed < 0 {
		elapsed = 0
	}
	days := int(elapsed / (24 * time.Hour))
	ts := *last
	return Staleness{
		LastActivity: &ts,
		DaysSince:    &days,
		Stale:        elapsed > threshold,
	}
}

// IsDead is the tri-state form used in API responses: nil when unknown.
func (s Staleness) IsDead() *bool {
	if s.LastActivity == nil {
		return nil
	}
	dead := s.Stale
	return &dead
}
