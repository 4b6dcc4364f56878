// Package service provides the business logic layer for the directory: it
// orchestrates registry mutations and publishes change events for the ones
// that broadcast.
package service

import (
	"servicedir/internal/domain"
	"servicedir/internal/metrics"
	"servicedir/internal/registry"
)

// DirectoryService wraps the registry and emits change events on creation.
type DirectoryService struct {
	reg      *registry.Registry
	eventBus *EventBus
}

// NewDirectoryService creates a new directory service.
func NewDirectoryService(reg *registry.Registry, eventBus *EventBus) *DirectoryService {
	return &DirectoryService{
		reg:      reg,
		eventBus: eventBus,
	}
}

// CreateService validates and stores a new service, then publishes a
// serviceCreated event. Event delivery is best-effort and never affects the
// outcome returned to the caller.
func (s *DirectoryService) CreateService(in domain.ServiceInput) (domain.Service, error) {
	svc, err := s.reg.Create(in)
	if err != nil {
		return domain.Service{}, err
	}

	metrics.ServicesCreated.Inc()
	s.eventBus.Publish(Event{
		Event:   EventServiceCreated,
		Service: &svc,
	})

	return svc, nil
}

// GetService retrieves a single service by id.
func (s *DirectoryService) GetService(id string) (domain.Service, error) {
	return s.reg.Get(id)
}

// ListServices returns all services, optionally restricted to one type.
func (s *DirectoryService) ListServices(typeFilter string) []domain.Service {
	return s.reg.List(typeFilter)
}

// ReplaceService overwrites an existing service wholesale. No event is
// published on this path.
func (s *DirectoryService) ReplaceService(id string, in domain.ServiceInput) (domain.Service, error) {
	return s.reg.Replace(id, in)
}

// PatchService applies a partial update to an existing service.
func (s *DirectoryService) PatchService(id string, p domain.ServicePatch) (domain.Service, error) {
	return s.reg.Patch(id, p)
}

// DeleteService removes a service permanently.
func (s *DirectoryService) DeleteService(id string) error {
	if err := s.reg.Delete(id); err != nil {
		return err
	}
	metrics.ServicesDeleted.Inc()
	return nil
}

// Snapshot returns the full id-to-record mapping for the debug endpoint.
func (s *DirectoryService) Snapshot() map[string]domain.Service {
	return s.reg.Snapshot()
}
