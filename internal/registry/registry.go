// Package registry implements the authoritative in-memory store of Service
// records.
//
// The registry owns every Service instance: all operations return copies, so
// no caller can mutate a stored record without going back through the
// registry. A single RWMutex guards the id-to-record mapping and the
// insertion-order index, making every operation atomic with respect to
// concurrent readers and writers. No operation performs I/O or blocks on
// anything but the lock.
//
// Listing returns records in insertion order, stable for the lifetime of the
// registry. Deleted ids are never reused; ids are random UUIDs.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"servicedir/internal/domain"
)

// ErrNotFound is returned when no record exists for the given id.
var ErrNotFound = errors.New("service not found")

// Registry is the in-memory Service store.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*domain.Service
	order    []string

	now func() time.Time // test hook, defaults to time.Now
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		services: make(map[string]*domain.Service),
		now:      time.Now,
	}
}

// stamp returns the next modification timestamp for a record last touched at
// prev. It clamps to prev+1ns when the clock has not advanced, keeping
// UpdatedAt strictly increasing across successive mutations of one record.
func (r *Registry) stamp(prev time.Time) time.Time {
	now := r.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

// Create validates the input, stores a new record under a fresh id and
// returns a copy of it.
func (r *Registry) Create(in domain.ServiceInput) (domain.Service, error) {
	if err := in.Validate(); err != nil {
		return domain.Service{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	svc := &domain.Service{
		ID:        uuid.NewString(),
		Type:      in.Type,
		Name:      in.Name,
		Address:   in.Address,
		Hours:     in.Hours,
		Phone:     in.Phone,
		UpdatedAt: r.stamp(time.Time{}),
	}
	r.services[svc.ID] = svc
	r.order = append(r.order, svc.ID)

	return *svc, nil
}

// Get returns the record for id, or ErrNotFound. Lookup is exact-match only.
func (r *Registry) Get(id string) (domain.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[id]
	if !ok {
		return domain.Service{}, ErrNotFound
	}
	return *svc, nil
}

// List returns all records in insertion order. A non-empty typeFilter
// restricts the result to records whose Type matches exactly.
func (r *Registry) List(typeFilter string) []domain.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Service, 0, len(r.order))
	for _, id := range r.order {
		svc := r.services[id]
		if typeFilter != "" && svc.Type != typeFilter {
			continue
		}
		out = append(out, *svc)
	}
	return out
}

// Replace overwrites all caller-mutable fields of an existing record.
// Omitted optional fields reset to empty. The id must exist and the input
// must pass the same validation as Create; existence is checked before
// validation.
func (r *Registry) Replace(id string, in domain.ServiceInput) (domain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.services[id]
	if !ok {
		return domain.Service{}, ErrNotFound
	}
	if err := in.Validate(); err != nil {
		return domain.Service{}, err
	}

	svc.Type = in.Type
	svc.Name = in.Name
	svc.Address = in.Address
	svc.Hours = in.Hours
	svc.Phone = in.Phone
	svc.UpdatedAt = r.stamp(svc.UpdatedAt)

	return *svc, nil
}

// Patch applies the non-nil fields of the patch to an existing record.
// There is no required-field validation: a patch only overwrites the fields
// it carries.
func (r *Registry) Patch(id string, p domain.ServicePatch) (domain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.services[id]
	if !ok {
		return domain.Service{}, ErrNotFound
	}

	p.Apply(svc)
	svc.UpdatedAt = r.stamp(svc.UpdatedAt)

	return *svc, nil
}

// Delete removes the record for id permanently. Deleting an unknown id
// returns ErrNotFound, so a second delete of the same id fails the same way.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.services[id]; !ok {
		return ErrNotFound
	}
	delete(r.services, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Snapshot returns a copy of the full id-to-record mapping. Diagnostic use
// only.
func (r *Registry) Snapshot() map[string]domain.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Service, len(r.services))
	for id, svc := range r.services {
		out[id] = *svc
	}
	return out
}

// Len returns the number of live records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}
