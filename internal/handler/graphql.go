package handler

import (
	"net/http"

	"github.com/graph-gophers/graphql-go"
)

// GraphQLHandler serves POST /graphql requests of the shape
// {query, variables}.
type GraphQLHandler struct {
	schema *graphql.Schema
}

// NewGraphQLHandler creates a handler backed by the given schema.
func NewGraphQLHandler(schema *graphql.Schema) *GraphQLHandler {
	return &GraphQLHandler{schema: schema}
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	decodeJSON(r, &req)

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing_query")
		return
	}

	resp := h.schema.Exec(r.Context(), req.Query, "", req.Variables)

	payload := map[string]interface{}{"data": resp.Data}
	status := http.StatusOK
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, qerr := range resp.Errors {
			msgs = append(msgs, qerr.Error())
		}
		payload["errors"] = msgs
		status = http.StatusBadRequest
	}
	writeJSON(w, status, payload)
}
