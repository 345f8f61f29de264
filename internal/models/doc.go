// Package models defines the core domain records exchanged with the Zaman backend.
//
// # Models
//
//   - Aim: a savings goal (target amount, accumulated amount, completion flag)
//   - Transaction: an immutable deposit or withdrawal ledger entry against one aim
//
// # Design Principles
//
// 1. **Wire fidelity**: JSON tags match the backend's snake_case field names exactly;
// renaming a tag is a breaking change.
// 2. **Decimal money**: all amounts are decimal.Decimal, never float64, so ledger
// arithmetic is exact.
// 3. **One merge rule**: the monotonic-completion invariant lives in Merge and nowhere
// else. Once an aim has been observed completed, no later server record can revert it.
//
// The backend owns every field except the completion flag, which the client owns
// monotonically: Merge may promote it, never demote it.
package models
