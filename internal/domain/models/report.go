package models

// RecordError describes a single raw record that could not be imported.
type RecordError struct {
	Ref    string `json:"ref" example:"phoenix:ord-991"`
	Reason string `json:"reason" example:"missing price"`
}

// ImportReport summarises one import batch. Partial success is the normal case:
// counts are always reported instead of an all-or-nothing failure.
//
// Trades counts trades first created by this import; re-importing known fills
// reports zero. OpenPositions is the number of open lots left in the accounts
// the import touched, taken from the latest re-match of each account.
type ImportReport struct {
	Imported      int           `json:"imported"`
	Skipped       int           `json:"skipped"`
	Failed        int           `json:"failed"`
	Trades        int           `json:"trades"`
	OpenPositions int           `json:"open_positions"`
	Collisions    int           `json:"collisions"`
	Errors        []RecordError `json:"errors,omitempty"`

	open map[string]openSnapshot
}

type openSnapshot struct {
	lots int
	seq  uint64
}

// SetOpenPositions records the open lot count of one account as of the
// re-match numbered seq. A figure with a lower seq than the one already held
// for the account is ignored.
func (r *ImportReport) SetOpenPositions(account string, lots int, seq uint64) {
	if r.open == nil {
		r.open = make(map[string]openSnapshot)
	}
	prev, ok := r.open[account]
	if ok && prev.seq > seq {
		return
	}
	r.OpenPositions += lots - prev.lots
	r.open[account] = openSnapshot{lots: lots, seq: seq}
}

// Merge adds other's counts and errors into r. Open positions of an account
// present in both keep the most recent figure instead of being summed.
func (r *ImportReport) Merge(other ImportReport) {
	r.Imported += other.Imported
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	r.Trades += other.Trades
	r.Collisions += other.Collisions
	r.Errors = append(r.Errors, other.Errors...)
	if other.open == nil {
		r.OpenPositions += other.OpenPositions
		return
	}
	for account, snap := range other.open {
		r.SetOpenPositions(account, snap.lots, snap.seq)
	}
}
