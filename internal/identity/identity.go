// Package identity derives deterministic trade identifiers so that re-importing
// the same fills never creates duplicate trades.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

// Inputs is the set of trade attributes the identity is computed from.
type Inputs struct {
	UserID        string
	AccountNumber string
	EntryID       string
	CloseID       string
	Instrument    string
	EntryPrice    string
	ClosePrice    string
	EntryDate     time.Time
	CloseDate     time.Time
	Quantity      int64
	Side          models.Direction
}

// FromTrade extracts identity inputs from a matched trade. Decimals use their
// canonical string form so 100.50 and 100.5 hash the same.
func FromTrade(t models.Trade) Inputs {
	return Inputs{
		UserID:        t.UserID,
		AccountNumber: t.AccountNumber,
		EntryID:       t.EntryID,
		CloseID:       t.CloseID,
		Instrument:    t.Instrument,
		EntryPrice:    t.EntryPrice.String(),
		ClosePrice:    t.ClosePrice.String(),
		EntryDate:     t.EntryDate,
		CloseDate:     t.CloseDate,
		Quantity:      t.Quantity,
		Side:          t.Side,
	}
}

func (in Inputs) canonical() string {
	return strings.Join([]string{
		in.UserID,
		in.AccountNumber,
		in.EntryID,
		in.CloseID,
		in.Instrument,
		in.EntryPrice,
		in.ClosePrice,
		in.EntryDate.UTC().Format(time.RFC3339Nano),
		in.CloseDate.UTC().Format(time.RFC3339Nano),
		strconv.FormatInt(in.Quantity, 10),
		string(in.Side),
	}, "|")
}

func digest(in Inputs) [sha256.Size]byte {
	return sha256.Sum256([]byte(in.canonical()))
}

// DeriveID returns the trade identifier: the first 128 bits of the SHA-256
// digest formatted as a UUID string. Same inputs always yield the same ID.
func DeriveID(in Inputs) string {
	sum := digest(in)
	id, _ := uuid.FromBytes(sum[:16]) // 16 bytes never fails
	return id.String()
}

// Fingerprint returns the full 256-bit digest in hex. Two trades with the same
// ID but different fingerprints are a collision.
func Fingerprint(in Inputs) string {
	sum := digest(in)
	return hex.EncodeToString(sum[:])
}

// Assign sets ID and Fingerprint on t and returns it.
func Assign(t models.Trade) models.Trade {
	in := FromTrade(t)
	t.ID = DeriveID(in)
	t.Fingerprint = Fingerprint(in)
	return t
}

// CollisionError reports two different trades mapped to the same identifier.
type CollisionError struct {
	ID       string
	Existing string
	Incoming string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("identity collision on %s: stored fingerprint %s, incoming %s", e.ID, short(e.Existing), short(e.Incoming))
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
