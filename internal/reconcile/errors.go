package reconcile

import "fmt"

// CoverageError reports that the fetched price intervals did not span every
// telemetry sample of a session. The session keeps its unset cost and is
// retried on the next cycle rather than being under-billed.
type CoverageError struct {
	Calculated int
	Total      int
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("pricing calculated for %d / %d telemetry samples, likely missing price data", e.Calculated, e.Total)
}

// MatchError reports that no provider charge survived tolerance filtering.
// An unmatched lump-sum session has no defensible price, so this is a hard
// per-session failure.
type MatchError struct {
	Candidates int
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("no provider charge matched the session within tolerances (%d candidates)", e.Candidates)
}
