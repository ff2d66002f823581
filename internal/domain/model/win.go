package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Community verification thresholds.
const (
	VerifyMinUpvotes     = 10
	VerifyMinUpvoteRatio = 0.8
)

// WinRecord is one reported prize win at a store.
// Records are appended and only their vote counts change afterwards.
type WinRecord struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"store_id"`
	GameID      string          `json:"game_id"`
	GameName    string          `json:"game_name"`
	PrizeAmount decimal.Decimal `json:"prize_amount"`
	WinDate     time.Time       `json:"win_date"` // zero when the source date was unparseable
	Verified    bool            `json:"verified"`
	Upvotes     int             `json:"upvotes"`
	Downvotes   int             `json:"downvotes"`
}

// ApplyVote records a community vote and promotes the record to verified
// once the vote volume and ratio cross the thresholds. Verification is sticky.
func (w *WinRecord) ApplyVote(up bool) {
	if up {
		w.Upvotes++
	} else {
		w.Downvotes++
	}
	if !w.Verified && QualifiesForVerification(w.Upvotes, w.Downvotes) {
		w.Verified = true
	}
}

// QualifiesForVerification reports whether vote counts meet the
// verification rule: at least 10 upvotes and strictly more than 80% positive.
func QualifiesForVerification(upvotes, downvotes int) bool {
	if upvotes < VerifyMinUpvotes {
		return false
	}
	total := upvotes + downvotes
	if total <= 0 {
		return false
	}
	return float64(upvotes)/float64(total) > VerifyMinUpvoteRatio
}
