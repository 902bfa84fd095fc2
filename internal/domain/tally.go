package domain

import (
	"slices"

	"tillpoint/backend/internal/money"
)

type DenominationCount struct {
	FaceValueCents money.Money `json:"face_value_cents"`
	Count          int         `json:"count"`
}

// DenominationTally counts physical currency units by face value during
// settlement cash counting. It has no persistence lifecycle of its own
// beyond the settlement attempt it belongs to.
type DenominationTally struct {
	Counts []DenominationCount `json:"counts"`
}

// SetCount records the count for one denomination, replacing any previous
// count. A count of zero removes the row.
func (t *DenominationTally) SetCount(faceValue money.Money, count int) error {
	if faceValue <= 0 || count < 0 {
		return ErrInvalidCount
	}

	idx := slices.IndexFunc(t.Counts, func(c DenominationCount) bool {
		return c.FaceValueCents == faceValue
	})
	switch {
	case count == 0 && idx >= 0:
		t.Counts = slices.Delete(t.Counts, idx, idx+1)
	case count == 0:
		// nothing to record
	case idx >= 0:
		t.Counts[idx].Count = count
	default:
		t.Counts = append(t.Counts, DenominationCount{FaceValueCents: faceValue, Count: count})
		slices.SortFunc(t.Counts, func(a, b DenominationCount) int {
			return int(b.FaceValueCents - a.FaceValueCents)
		})
	}
	return nil
}

// TotalCents is Σ(face value × count).
func (t DenominationTally) TotalCents() money.Money {
	var total money.Money
	for _, c := range t.Counts {
		total = total.Add(c.FaceValueCents * money.Money(c.Count))
	}
	return total
}
