// Package inventory holds the pure reservation arithmetic that keeps part
// stock consistent with the quantities reserved by job cards. It has no
// storage dependencies; callers apply the resulting deltas inside a
// transaction.
package inventory

import (
	"errors"
	"fmt"
)

// Mode controls how an incoming parts payload combines with the quantities
// already reserved by a job card.
type Mode string

const (
	// ModeAdd layers the incoming quantities on top of the current reservation.
	ModeAdd Mode = "add"
	// ModeUpdate sets the final quantity for each part named in the payload;
	// parts not mentioned keep their current reservation.
	ModeUpdate Mode = "update"
	// ModeReplace makes the incoming payload the entire reservation set;
	// anything not re-listed is fully released.
	ModeReplace Mode = "replace"
)

// ParseMode maps the wire value to a Mode. An empty string defaults to add.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeAdd):
		return ModeAdd, nil
	case string(ModeUpdate):
		return ModeUpdate, nil
	case string(ModeReplace):
		return ModeReplace, nil
	}
	return "", fmt.Errorf("unknown update mode %q", s)
}

// Line is one part reference from a request payload.
type Line struct {
	PartID   string
	Quantity int
}

// Normalize collapses duplicate part references by summing their quantities.
// Callers may legitimately submit the same part on two lines; treating them
// as independent deltas would double-count against stock, so this runs
// unconditionally before any mode logic.
func Normalize(lines []Line) (map[string]int, error) {
	merged := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.PartID == "" {
			return nil, errors.New("part_id is required")
		}
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for part %s", l.PartID)
		}
		merged[l.PartID] += l.Quantity
	}
	return merged, nil
}

// Reconcile computes, for one job card, the signed stock deltas and the next
// reserved set given the stored reservation and a normalized incoming
// payload. delta[p] > 0 means consume that much stock, delta[p] < 0 means
// release it. Creation is a replace against an empty old map.
func Reconcile(old, incoming map[string]int, mode Mode) (delta, next map[string]int, err error) {
	switch mode {
	case ModeAdd:
		delta, next = reconcileAdd(old, incoming)
	case ModeUpdate:
		delta, next = reconcileUpdate(old, incoming)
	case ModeReplace:
		delta, next = reconcileReplace(old, incoming)
	default:
		return nil, nil, fmt.Errorf("unknown update mode %q", mode)
	}
	return delta, next, nil
}

func reconcileAdd(old, incoming map[string]int) (delta, next map[string]int) {
	delta = make(map[string]int, len(incoming))
	next = cloneQuantities(old)
	for p, q := range incoming {
		next[p] = old[p] + q
		delta[p] = q
	}
	return delta, next
}

func reconcileUpdate(old, incoming map[string]int) (delta, next map[string]int) {
	delta = make(map[string]int, len(incoming))
	next = cloneQuantities(old)
	for p, q := range incoming {
		if d := q - old[p]; d != 0 {
			delta[p] = d
		}
		next[p] = q
	}
	return delta, next
}

func reconcileReplace(old, incoming map[string]int) (delta, next map[string]int) {
	delta = make(map[string]int, len(incoming)+len(old))
	next = cloneQuantities(incoming)
	for p, q := range incoming {
		if d := q - old[p]; d != 0 {
			delta[p] = d
		}
	}
	for p, q := range old {
		if _, kept := incoming[p]; !kept {
			delta[p] = -q
		}
	}
	return delta, next
}

// ReleaseAll returns the deltas that hand a card's entire reservation back
// to stock, used when the card is deleted.
func ReleaseAll(old map[string]int) map[string]int {
	delta := make(map[string]int, len(old))
	for p, q := range old {
		delta[p] = -q
	}
	return delta
}

func cloneQuantities(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for p, q := range m {
		out[p] = q
	}
	return out
}
