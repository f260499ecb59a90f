package service

import (
	"github.com/okian/cabina/internal/adapters/bus"
	"github.com/okian/cabina/internal/adapters/capture"
	"github.com/okian/cabina/internal/config"
	"github.com/okian/cabina/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration the components are built from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource replaces the capture source chosen by the configuration.
func WithSource(src capture.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithBusPublisher publishes snapshots through p instead of dialing the
// configured broker.
func WithBusPublisher(p bus.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.busPublisher = p
		}
	}
}
