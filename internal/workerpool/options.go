package workerpool

import "github.com/rs/zerolog"

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithSize sets the number of workers. Values < 1 are ignored.
func WithSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithQueueSize sets how many jobs may wait for a worker before Submit blocks.
// Negative values are ignored.
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n >= 0 {
			p.queueSize = n
		}
	}
}

// WithLogger sets the logger used for lifecycle and panic reports.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pool) {
		p.logger = l
	}
}
