package repository

import "gorm.io/gorm/logger"

// Option applies a configuration option to the GormStore.
type Option func(*GormStore)

// WithAutoMigrate controls whether NewGormStore creates missing tables.
func WithAutoMigrate(enabled bool) Option {
	return func(s *GormStore) {
		s.autoMigrate = enabled
	}
}

// WithLogLevel sets the gorm SQL logger level. Defaults to silent.
func WithLogLevel(level logger.LogLevel) Option {
	return func(s *GormStore) {
		s.logLevel = level
	}
}
