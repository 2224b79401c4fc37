package model

// Pick is one drafted athlete as recorded on a roster.
type Pick struct {
	Name     string   `json:"name"`
	Position Position `json:"position"`
}

// Roster is the ordered list of picks made by one genome in one draft.
type Roster []Pick

// NoSelection names the placeholder used for unfilled lineup slots.
const NoSelection = "No Selection"

// LineupEntry is one filled (or placeholder) starting slot.
type LineupEntry struct {
	Slot     Position `json:"slot"`
	Name     string   `json:"name"`
	Position Position `json:"position"`
	Score    float64  `json:"score"`
}

// IsPlaceholder reports whether the slot was left unfilled.
func (e LineupEntry) IsPlaceholder() bool {
	return e.Name == NoSelection
}

// Placeholder returns the zero-score entry for an unfilled slot.
func Placeholder(slot Position) LineupEntry {
	return LineupEntry{Slot: slot, Name: NoSelection, Position: slot}
}

// Lineup is the set of starting slots chosen from a roster.
type Lineup []LineupEntry

// Total sums every entry's score. Placeholders contribute zero.
func (l Lineup) Total() float64 {
	var sum float64
	for _, e := range l {
		sum += e.Score
	}
	return sum
}
