package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

// BatchResult is the outcome of normalizing one import batch.
type BatchResult struct {
	Fills   []models.NormalizedFill
	Failed  []models.RecordError
	Skipped []models.RecordError
}

// NormalizeBatch normalizes every record independently; a bad record never
// aborts the batch.
//
// Behavior:
//   - Malformed records land in Failed, cancelled/unfilled ones in Skipped.
//   - A record repeating a source fill ID already seen in the batch is skipped as a duplicate.
//   - Identical executions without a source fill ID get an ordinal suffix ("-2", "-3")
//     so both survive with stable identifiers.
func NormalizeBatch(records []RawRecord) BatchResult {
	var out BatchResult
	seen := make(map[string]struct{}, len(records))
	synthetic := make(map[string]int)

	for _, raw := range records {
		f, err := Normalize(raw)
		if err != nil {
			var skipErr *SkipError
			var normErr *NormalizationError
			switch {
			case errors.As(err, &skipErr):
				out.Skipped = append(out.Skipped, models.RecordError{Ref: skipErr.Ref, Reason: skipErr.Reason})
			case errors.As(err, &normErr):
				out.Failed = append(out.Failed, models.RecordError{Ref: normErr.Ref, Reason: normErr.Reason})
			default:
				out.Failed = append(out.Failed, models.RecordError{Ref: "?", Reason: err.Error()})
			}
			continue
		}

		if strings.HasPrefix(f.SourceFillID, "syn-") {
			synthetic[f.SourceFillID]++
			if n := synthetic[f.SourceFillID]; n > 1 {
				suffixed := fmt.Sprintf("%s-%d", f.SourceFillID, n)
				if f.SourceOrderID == f.SourceFillID {
					f.SourceOrderID = suffixed
				}
				f.SourceFillID = suffixed
			}
		}

		key := FillKey(f)
		if _, dup := seen[key]; dup {
			out.Skipped = append(out.Skipped, models.RecordError{Ref: raw.Ref(), Reason: "duplicate fill in batch"})
			continue
		}
		seen[key] = struct{}{}
		out.Fills = append(out.Fills, f)
	}
	return out
}

// FillKey is the persistence identity of a fill: source, account and fill ID.
func FillKey(f models.NormalizedFill) string {
	return string(f.Source) + "|" + f.AccountNumber + "|" + f.SourceFillID
}
