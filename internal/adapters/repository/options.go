package repository

import "github.com/okian/cabina/pkg/logger"

// Option applies a configuration option to the BadgerStore.
type Option func(*BadgerStore)

// WithDir sets the on-disk data directory.
func WithDir(dir string) Option {
	return func(s *BadgerStore) {
		s.dir = dir
	}
}

// WithInMemory keeps all data in memory; nothing survives Close.
func WithInMemory(inMemory bool) Option {
	return func(s *BadgerStore) {
		s.inMemory = inMemory
	}
}

// WithLogger routes store and badger output through l.
func WithLogger(l logger.Logger) Option {
	return func(s *BadgerStore) {
		if l != nil {
			s.logger = l
		}
	}
}
