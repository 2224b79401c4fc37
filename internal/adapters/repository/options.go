package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithCapacity bounds the number of strategies kept. When full, the worst
// strategy is evicted. Zero or negative means unbounded.
func WithCapacity(n int) Option {
	return func(s *TreapStore) {
		s.capacity = n
	}
}
