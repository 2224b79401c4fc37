package dedupe

// Option applies a configuration option to a Registry.
type Option func(*Registry)

// WithCapacity pre-sizes the registry for the expected number of picks
// (rounds × population size).
func WithCapacity(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.capacity = n
		}
	}
}
