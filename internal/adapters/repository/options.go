package repository

// Option applies a configuration option to the InMemoryStore.
type Option func(*InMemoryStore)

// WithMaxTwins bounds how many twins the store accepts. Zero means no limit.
func WithMaxTwins(n int) Option {
	return func(s *InMemoryStore) {
		if n >= 0 {
			s.maxTwins = n
		}
	}
}
