package scoring

// Option applies a configuration option to the LineupScorer.
type Option func(*LineupScorer)

// WithSlots replaces the starting slot list. Slots are filled in the given
// order. Empty lists are ignored.
func WithSlots(slots ...Slot) Option {
	return func(s *LineupScorer) {
		if len(slots) > 0 {
			s.slots = append([]Slot(nil), slots...)
		}
	}
}
