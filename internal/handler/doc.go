// Package handler implements the HTTP layer for the servicedir API.
//
// # Handlers
//
// ServiceHandler exposes the versioned REST surface under /api/v1/services
// plus the health and debug endpoints. GraphQLHandler serves the POST
// /graphql endpoint. Both are thin adapters: they translate requests into
// registry operations and map typed outcomes back to status codes, owning
// no state of their own.
//
// # Response Format
//
// Success responses return JSON with appropriate status codes (200, 201,
// 204, 304). Error responses return JSON of the shape {"error": code},
// extended with a "fields" list for validation failures.
//
// # Conditional Reads
//
// The single-record GET path computes a content fingerprint per request and
// honors If-None-Match, answering 304 with no body when the precondition
// matches. Both outcomes carry identical ETag and Cache-Control headers.
//
// # Middleware
//
// Chain composes Recover, CORS and Logger around the mux. Logger also
// feeds the HTTP request counter.
package handler
