package domain

import (
	"fmt"
	"strings"
	"time"
)

// Service represents a single community resource in the directory.
type Service struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Hours     string    `json:"hours"`
	Phone     string    `json:"phone"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ServiceInput holds the caller-supplied fields for create and replace.
// ID and UpdatedAt are always owned by the registry and never accepted
// from the caller.
type ServiceInput struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Hours   string `json:"hours"`
	Phone   string `json:"phone"`
}

// ServicePatch is a partial update. Nil fields are left untouched, so a
// patch can never remove a required field, only overwrite the ones it
// carries.
type ServicePatch struct {
	Type    *string `json:"type"`
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Hours   *string `json:"hours"`
	Phone   *string `json:"phone"`
}

// ValidationError reports required fields that were missing or empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Validate checks that the required fields are present and non-empty.
// Missing fields are reported in a fixed order: type, name, address.
func (in ServiceInput) Validate() error {
	var missing []string
	if in.Type == "" {
		missing = append(missing, "type")
	}
	if in.Name == "" {
		missing = append(missing, "name")
	}
	if in.Address == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Apply overlays the non-nil patch fields onto the service.
func (p ServicePatch) Apply(s *Service) {
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Hours != nil {
		s.Hours = *p.Hours
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
}
