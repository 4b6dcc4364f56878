package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"servicedir/internal/domain"
	"servicedir/internal/graph"
	"servicedir/internal/hub"
	"servicedir/internal/registry"
	"servicedir/internal/service"
)

// newTestServer wires the full surface the way cmd/server does: REST,
// GraphQL, WebSocket feed and the auxiliary endpoints.
func newTestServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()

	reg := registry.New()
	eventBus := service.NewEventBus()
	dirSvc := service.NewDirectoryService(reg, eventBus)

	wsHub := hub.New(time.Second)
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range eventChan {
			wsHub.Publish(event)
		}
	}()
	t.Cleanup(func() {
		close(eventChan)
		<-done
	})

	schema, err := graph.NewSchema(reg)
	if err != nil {
		t.Fatalf("NewSchema() error: %v", err)
	}

	svcHandler := NewServiceHandler(dirSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/services", svcHandler.Create)
	mux.HandleFunc("GET /api/v1/services", svcHandler.List)
	mux.HandleFunc("GET /api/v1/services/{id}", svcHandler.Get)
	mux.HandleFunc("PUT /api/v1/services/{id}", svcHandler.Replace)
	mux.HandleFunc("PATCH /api/v1/services/{id}", svcHandler.Patch)
	mux.HandleFunc("DELETE /api/v1/services/{id}", svcHandler.Delete)
	mux.HandleFunc("GET /health", svcHandler.Health)
	mux.HandleFunc("GET /debug/services", svcHandler.Debug)
	mux.Handle("GET /ws", wsHub)
	mux.Handle("POST /graphql", NewGraphQLHandler(schema))

	srv := httptest.NewServer(Chain(mux, Recover, Logger))
	t.Cleanup(srv.Close)
	return srv, wsHub
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal() error: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func createService(t *testing.T, srv *httptest.Server, in domain.ServiceInput) domain.Service {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/services", in)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var svc domain.Service
	decodeBody(t, resp, &svc)
	return svc
}

func TestCreateService(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/services", domain.ServiceInput{
		Type:    "clinic",
		Name:    "Hope Clinic",
		Address: "1 Main St",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var svc domain.Service
	decodeBody(t, resp, &svc)
	if svc.ID == "" {
		t.Error("created service has empty id")
	}
	if svc.Hours != "" || svc.Phone != "" {
		t.Errorf("optional fields not defaulted: hours=%q phone=%q", svc.Hours, svc.Phone)
	}
	if got, want := resp.Header.Get("Location"), "/api/v1/services/"+svc.ID; got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func TestCreateServiceMissingFields(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/services", map[string]string{"type": "clinic"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	decodeBody(t, resp, &body)
	if body.Error != "missing_fields" {
		t.Errorf("error = %q, want missing_fields", body.Error)
	}
	if len(body.Fields) != 2 || body.Fields[0] != "name" || body.Fields[1] != "address" {
		t.Errorf("fields = %v, want [name address]", body.Fields)
	}
}

func TestCreateServiceMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/services", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("Post() error: %v", err)
	}
	defer resp.Body.Close()

	// Malformed bodies behave like an empty object: all required missing.
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetService(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createService(t, srv, domain.ServiceInput{Type: "clinic", Name: "Hope Clinic", Address: "1 Main St"})

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/services/"+created.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("ETag") == "" {
		t.Error("missing ETag header")
	}
	if got := resp.Header.Get("Cache-Control"); got != "private, max-age=0, must-revalidate" {
		t.Errorf("Cache-Control = %q", got)
	}

	var svc domain.Service
	decodeBody(t, resp, &svc)
	if svc.ID != created.ID || svc.Name != "Hope Clinic" {
		t.Errorf("body = %+v", svc)
	}
}

func TestGetServiceNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/services/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["error"] != "not_found" {
		t.Errorf("error = %q, want not_found", body["error"])
	}
}

func TestConditionalGet(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createService(t, srv, domain.ServiceInput{Type: "clinic", Name: "Hope Clinic", Address: "1 Main St"})
	url := srv.URL + "/api/v1/services/" + created.ID

	first := doJSON(t, http.MethodGet, url, nil)
	fingerprint := first.Header.Get("ETag")
	if fingerprint == "" {
		t.Fatal("missing ETag header")
	}

	// Matching precondition: 304, no body, same header pair.
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("If-None-Match", fingerprint)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", resp.StatusCode)
	}
	if got := resp.Header.Get("ETag"); got != fingerprint {
		t.Errorf("304 ETag = %q, want %q", got, fingerprint)
	}
	if got := resp.Header.Get("Cache-Control"); got != "private, max-age=0, must-revalidate" {
		t.Errorf("304 Cache-Control = %q", got)
	}
	if body, _ := io.ReadAll(resp.Body); len(body) != 0 {
		t.Errorf("304 carried a body: %q", body)
	}

	// Stale precondition: full record again.
	req, _ = http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("If-None-Match", "0000000000000000")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp2.StatusCode)
	}
	if got := resp2.Header.Get("ETag"); got != fingerprint {
		t.Errorf("ETag = %q, want %q", got, fingerprint)
	}
}

func TestConditionalGetChangesAfterMutation(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createService(t, srv, domain.ServiceInput{Type: "clinic", Name: "Hope Clinic", Address: "1 Main St"})
	url := srv.URL + "/api/v1/services/" + created.ID

	first := doJSON(t, http.MethodGet, url, nil)
	fingerprint := first.Header.Get("ETag")

	patch := doJSON(t, http.MethodPatch, url, map[string]string{"hours": "9-5"})
	if patch.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d, want 200", patch.StatusCode)
	}

	// The old fingerprint no longer matches.
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("If-None-Match", fingerprint)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 after mutation", resp.StatusCode)
	}
	if got := resp.Header.Get("ETag"); got == fingerprint {
		t.Error("fingerprint unchanged after mutation")
	}
}

func TestListServicesFilter(t *testing.T) {
	srv, _ := newTestServer(t)
	clinic := createService(t, srv, domain.ServiceInput{Type: "clinic", Name: "Hope Clinic", Address: "1 Main St"})
	createService(t, srv, domain.ServiceInput{Type: "shelter", Name: "Night Shelter", Address: "2 Elm St"})

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/services?type=clinic", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var list []domain.Service
	decodeBody(t, resp, &list)
	if len(list) != 1 || list[0].ID != clinic.ID {
		t.Errorf("filtered list = %+v, want exactly %s", list, clinic.ID)
	}

	all := doJSON(t, http.MethodGet, srv.URL+"/api/v1/services", nil)
	var allList []domain.Service
	decodeBody(t, all, &allList)
	if len(allList) != 2 {
		t.Errorf("unfiltered list has %d entries, want 2", len(allList))
	}
}

func TestListServicesEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/services", nil)
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("empty list body = %q, want []", body)
	}
}

func TestReplaceService(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createService(t, srv, domain.ServiceInput{
		Type: "clinic", Name: "Hope Clinic", Address: "1 Main St", Hours: "9-5", Phone: "555-0100",
	})
	url := srv.URL + "/api/v1/services/" + created.ID

	resp := doJSON(t, http.MethodPut, url, domain.ServiceInput{
		Type: "shelter", Name: "Night Shelter", Address: "2 Elm St",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var svc domain.Service
	decodeBody(t, resp, &svc)
	if svc.Type != "shelter" || svc.Hours != "" || svc.Phone != "" {
		t.Errorf("replaced = %+v, want wholesale replacement with reset optionals", svc)
	}
	if !svc.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: %v <= %v", svc.UpdatedAt, created.UpdatedAt)
	}

	// Round-trip: get returns exactly the replaced content.
	got := doJSON(t, http.MethodGet, url, nil)
	var roundTrip domain.Service
	decodeBody(t, got, &roundTrip)
	if roundTrip.Type != svc.Type || roundTrip.Name != svc.Name || !roundTrip.UpdatedAt.Equal(svc.UpdatedAt) {
		t.Errorf("get after replace = %+v, want %+v", roundTrip, svc)
	}
}

func TestReplaceServiceErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createService(t, srv, domain.ServiceInput{Type: "clinic", Name: "Hope Clinic", Address: "1 Main St"})

	notFound := doJSON(t, http.MethodPut, srv.URL+"/api/v1/services/nope", domain.ServiceInput{
		Type: "clinic", Name: "X", Address: "Y",
	})
	if notFound.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", notFound.StatusCode)
	}

	invalid := doJSON(t, http.MethodPut, srv.URL+"/api/v1/services/"+created.ID, map[string]string{"name": "Only"})
	if invalid.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", invalid.StatusCode)
	}
}

func TestPatchService(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createService(t, srv, domain.ServiceInput{Type: "clinic", Name: "Hope Clinic", Address: "1 Main St"})

	resp := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/services/"+created.ID, map[string]string{"hours": "9-5"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var svc domain.Service
	decodeBody(t, resp, &svc)
	if svc.Hours != "9-5" {
		t.Errorf("hours = %q, want 9-5", svc.Hours)
	}
	if svc.Type != created.Type || svc.Name != created.Name || svc.Address != created.Address || svc.Phone != created.Phone {
		t.Errorf("patch changed unrelated fields: %+v vs %+v", svc, created)
	}

	missing := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/services/nope", map[string]string{"hours": "9-5"})
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", missing.StatusCode)
	}
}

func TestDeleteService(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createService(t, srv, domain.ServiceInput{Type: "clinic", Name: "Hope Clinic", Address: "1 Main St"})
	url := srv.URL + "/api/v1/services/" + created.ID

	resp := doJSON(t, http.MethodDelete, url, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if body, _ := io.ReadAll(resp.Body); len(body) != 0 {
		t.Errorf("204 carried a body: %q", body)
	}

	if got := doJSON(t, http.MethodGet, url, nil); got.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", got.StatusCode)
	}
	if again := doJSON(t, http.MethodDelete, url, nil); again.StatusCode != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", again.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestDebugDump(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createService(t, srv, domain.ServiceInput{Type: "clinic", Name: "Hope Clinic", Address: "1 Main St"})

	resp := doJSON(t, http.MethodGet, srv.URL+"/debug/services", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var dump map[string]domain.Service
	decodeBody(t, resp, &dump)
	if len(dump) != 1 || dump[created.ID].Name != "Hope Clinic" {
		t.Errorf("dump = %+v", dump)
	}
}

// TestCreateBroadcastsToSubscriber covers the full write path: a subscriber
// connected before the mutation receives the serviceCreated event carrying
// the identical record.
func TestCreateBroadcastsToSubscriber(t *testing.T) {
	srv, wsHub := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, ackRaw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error: %v", err)
	}
	var ack service.Event
	if err := json.Unmarshal(ackRaw, &ack); err != nil || ack.Event != service.EventConnected {
		t.Fatalf("first frame = %s, want connected ack", ackRaw)
	}

	// The ack precedes registration; wait until the hub has the subscriber
	// before mutating.
	deadline := time.Now().Add(2 * time.Second)
	for wsHub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if wsHub.ClientCount() == 0 {
		t.Fatal("subscriber never registered")
	}

	created := createService(t, srv, domain.ServiceInput{Type: "clinic", Name: "Hope Clinic", Address: "1 Main St"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, evRaw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error: %v", err)
	}
	var ev service.Event
	if err := json.Unmarshal(evRaw, &ev); err != nil {
		t.Fatalf("Unmarshal(%s) error: %v", evRaw, err)
	}
	if ev.Event != service.EventServiceCreated {
		t.Errorf("event = %q, want serviceCreated", ev.Event)
	}
	if ev.Service == nil {
		t.Fatal("event has no service payload")
	}
	if ev.Service.ID != created.ID || ev.Service.Name != created.Name || !ev.Service.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("event payload = %+v, want %+v", ev.Service, created)
	}
}
