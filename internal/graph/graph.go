// Package graph exposes the directory's GraphQL read surface.
//
// The schema mirrors the Service entity and offers two queries: a filtered
// listing and a single-record lookup. Resolvers read straight from the
// registry and hold no state of their own, so every response reflects the
// registry's current contents.
package graph

import (
	"time"

	"github.com/graph-gophers/graphql-go"

	"servicedir/internal/domain"
	"servicedir/internal/registry"
)

const schemaString = `
	schema {
		query: Query
	}

	type Query {
		services(type: String): [Service!]!
		service(id: String!): Service
	}

	type Service {
		id: String!
		type: String!
		name: String!
		address: String!
		hours: String!
		phone: String!
		updatedAt: String!
	}
`

// NewSchema parses the schema against a root resolver backed by the given
// registry.
func NewSchema(reg *registry.Registry) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaString, &Resolver{reg: reg})
}

// Resolver is the GraphQL root resolver.
type Resolver struct {
	reg *registry.Registry
}

// Services resolves the filtered listing query.
func (r *Resolver) Services(args struct{ Type *string }) []*serviceResolver {
	var filter string
	if args.Type != nil {
		filter = *args.Type
	}

	services := r.reg.List(filter)
	out := make([]*serviceResolver, 0, len(services))
	for _, svc := range services {
		out = append(out, &serviceResolver{svc: svc})
	}
	return out
}

// Service resolves the single-record lookup; unknown ids resolve to null.
func (r *Resolver) Service(args struct{ ID string }) *serviceResolver {
	svc, err := r.reg.Get(args.ID)
	if err != nil {
		return nil
	}
	return &serviceResolver{svc: svc}
}

type serviceResolver struct {
	svc domain.Service
}

func (s *serviceResolver) ID() string      { return s.svc.ID }
func (s *serviceResolver) Type() string    { return s.svc.Type }
func (s *serviceResolver) Name() string    { return s.svc.Name }
func (s *serviceResolver) Address() string { return s.svc.Address }
func (s *serviceResolver) Hours() string   { return s.svc.Hours }
func (s *serviceResolver) Phone() string   { return s.svc.Phone }

func (s *serviceResolver) UpdatedAt() string {
	return s.svc.UpdatedAt.Format(time.RFC3339Nano)
}
