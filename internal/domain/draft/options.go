package draft

import "github.com/okian/snakedraft/pkg/logger"

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger used by the simulator.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}
