package models

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The backend serializes amounts as plain JSON numbers; quoted decimals would be
	// rejected by its schema validation.
	decimal.MarshalJSONWithoutQuotes = true
}

// Aim represents a savings goal.
type Aim struct {
	// ID is the server-assigned identifier, unique within a user's aim set.
	ID int64 `json:"id"`

	// UserID is the owning user. Assigned by the backend, never sent on create.
	UserID int64 `json:"user_id,omitempty"`

	// Title is the display name of the goal.
	Title string `json:"title"`

	// Description is optional display text.
	Description string `json:"description"`

	// TargetAmount is the completion threshold.
	TargetAmount decimal.Decimal `json:"target_amount"`

	// CurrentAmount is the amount accumulated so far. Never negative.
	CurrentAmount decimal.Decimal `json:"current_amount"`

	// IsCompleted reports whether the goal has been reached. Once true it stays
	// true for the rest of the session, even if a later withdrawal drains the aim.
	// See Merge.
	IsCompleted bool `json:"is_completed"`
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// ProgressPercent derives the goal's progress as a whole percentage in [0, 100].
// A zero or sub-unit target is clamped to 1 to avoid dividing by zero.
func (a Aim) ProgressPercent() int64 {
	den := a.TargetAmount
	if den.LessThan(one) {
		den = one
	}
	pct := a.CurrentAmount.Div(den).Mul(hundred).Round(0).IntPart()
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ReachedTarget reports whether the aim's amounts alone imply completion.
func (a Aim) ReachedTarget() bool {
	return a.ProgressPercent() >= 100
}

// Merge combines a locally held aim record with the authoritative server record.
// The server wins on every field except the completion flag, which is monotonic:
// prior completion, server completion, or completion derived from the server's own
// amounts all keep the aim completed.
func Merge(prior, server Aim) Aim {
	merged := server
	merged.IsCompleted = prior.IsCompleted || server.IsCompleted || server.ReachedTarget()
	return merged
}

// AimCreate is the payload for creating a new aim.
type AimCreate struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
}

// AimUpdate is a partial patch of an aim's editable fields. Nil fields are
// omitted from the request body and left untouched by the backend.
type AimUpdate struct {
	Title         *string          `json:"title,omitempty"`
	Description   *string          `json:"description,omitempty"`
	TargetAmount  *decimal.Decimal `json:"target_amount,omitempty"`
	CurrentAmount *decimal.Decimal `json:"current_amount,omitempty"`
}
