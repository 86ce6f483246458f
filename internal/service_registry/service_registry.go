package service_registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/tracker-gateway/internal/constants"
	"github.com/benmeehan/tracker-gateway/internal/protocols"
	"github.com/benmeehan/tracker-gateway/internal/registry"
	"github.com/benmeehan/tracker-gateway/internal/services"
	"github.com/benmeehan/tracker-gateway/internal/utils"
	"github.com/benmeehan/tracker-gateway/pkg/identity"
	"github.com/rs/zerolog"
)

// ServiceRegistry manages the lifecycle of the protocol listeners.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	resolver    identity.Resolver
	sink        services.PositionSink
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(resolver identity.Resolver, sink services.PositionSink, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]registry.Service),
		resolver: resolver,
		sink:     sink,
		Logger:   logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Names returns the registered service names in registration order.
func (sr *ServiceRegistry) Names() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices creates a listener for every enabled protocol.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config) error {
	// Ordered protocol definitions with inline decoders
	listenersInOrder := []struct {
		name             string
		listener         utils.ListenerConfig
		defaultDelimiter string
		decoder          func() protocols.Decoder
	}{
		{
			name:             constants.ProtocolEasyTrack,
			listener:         config.Protocols.EasyTrack,
			defaultDelimiter: constants.EasyTrackDelimiter,
			decoder: func() protocols.Decoder {
				return protocols.NewEasyTrackDecoder(sr.resolver, sr.Logger)
			},
		},
		{
			name:             constants.ProtocolWialon,
			listener:         config.Protocols.Wialon,
			defaultDelimiter: constants.WialonDelimiter,
			decoder: func() protocols.Decoder {
				return protocols.NewWialonDecoder(sr.resolver, sr.Logger)
			},
		},
	}

	registeredServices := []string{}
	for _, l := range listenersInOrder {
		if !l.listener.Enabled {
			continue
		}
		if l.listener.Address == "" {
			err := fmt.Errorf("%s listener has no address", l.name)
			sr.Logger.Error().Err(err).Msgf("Failed to create %s service", l.name)
			return err
		}
		delimiter := l.listener.Delimiter
		if delimiter == "" {
			delimiter = l.defaultDelimiter
		}
		sr.RegisterService(l.name, services.NewListenerService(l.listener.Address, delimiter, l.decoder(), sr.sink, sr.Logger))
		registeredServices = append(registeredServices, l.name)
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
