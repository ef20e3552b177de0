package engine

// NewSlots returns n Unjoined slots indexed 0..n-1.
func NewSlots(n int) []Slot {
	slots := make([]Slot, n)
	for i := range slots {
		slots[i] = Slot{Index: i, State: Unjoined, Choice: NoChoice}
	}
	return slots
}

// Counts returns how many slots are joined and how many of those are locked.
func Counts(slots []Slot) (joined, locked int) {
	for _, s := range slots {
		if s.Joined() {
			joined++
		}
		if s.State == Locked {
			locked++
		}
	}
	return joined, locked
}

// IsReady is true when somebody has joined and every joined slot is locked.
func IsReady(slots []Slot) bool {
	joined, locked := Counts(slots)
	return joined > 0 && joined == locked
}

// Pick is one slot's final choice.
type Pick struct {
	Slot   int `json:"slot"`
	Choice int `json:"choice"`
}

// Picks lists the locked slots in slot order.
func Picks(slots []Slot) []Pick {
	out := []Pick{}
	for _, s := range slots {
		if s.State == Locked {
			out = append(out, Pick{Slot: s.Index, Choice: s.Choice})
		}
	}
	return out
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
