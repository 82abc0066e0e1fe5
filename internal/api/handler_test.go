package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/servicevirt/internal/audit"
	"github.com/prasenjit/servicevirt/internal/catalog"
	"github.com/prasenjit/servicevirt/internal/dispatch"
	"github.com/prasenjit/servicevirt/internal/models"
	"github.com/prasenjit/servicevirt/internal/proxy"
	"github.com/prasenjit/servicevirt/internal/stats"
	"github.com/prasenjit/servicevirt/internal/storage"
)

const petsDocument = `
openapi: 3.0.0
info:
  title: Pets API
  version: 1.0.0
paths:
  /pets/{id}:
    get:
      operationId: getPet
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        '200':
          description: A pet
          content:
            application/json:
              example:
                name: Rex
`

type testEnv struct {
	router    *Router
	store     *storage.MemoryStorage
	audit     *audit.Service
	collector *stats.Collector
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStorage()
	cat := catalog.New(store, nil)
	auditSvc := audit.NewService(100, 16, nil)
	t.Cleanup(auditSvc.Close)
	metrics := stats.NewMetrics()
	collector := stats.NewCollector(metrics)

	dispatcher := dispatch.New(dispatch.Options{
		Resolver:   cat,
		Repository: store,
		Auditor:    auditSvc,
		Observer:   collector,
	})

	router := NewRouter(Options{
		Store:      store,
		Catalog:    cat,
		Dispatcher: dispatcher,
		Collector:  collector,
		Metrics:    metrics,
		Audit:      auditSvc,
		Proxy:      proxy.NewHandler(dispatcher, nil),
	})

	return &testEnv{router: router, store: store, audit: auditSvc, collector: collector}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode %q: %v", w.Body.String(), err)
	}
}

// seed creates a REST service with one operation and returns both
func (e *testEnv) seed(t *testing.T, strategy models.ResponseStrategy, responses ...models.MockResponse) (*models.Service, *models.Operation) {
	t.Helper()

	svc := &models.Service{ID: "svc-1", Name: "Users", Type: models.ServiceTypeREST, BasePath: "/api", Enabled: true}
	if err := e.store.CreateService(svc); err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}
	op := &models.Operation{
		ID:               "op-1",
		ServiceID:        svc.ID,
		Name:             "getUser",
		Method:           "GET",
		URI:              "/users/{id}",
		Status:           models.StatusMocked,
		ResponseStrategy: strategy,
		MockResponses:    responses,
	}
	if err := e.store.CreateOperation(op); err != nil {
		t.Fatalf("CreateOperation failed: %v", err)
	}
	e.reload(t)
	return svc, op
}

func (e *testEnv) reload(t *testing.T) {
	t.Helper()
	if err := e.router.handler.catalog.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
}

func mock(id, body string) models.MockResponse {
	return models.MockResponse{ID: id, Name: id, Status: models.MockResponseEnabled, HTTPStatusCode: 200, Body: body}
}

func TestHealthCheck(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "GET", "/_api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]interface{}
	decode(t, w, &body)
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", body["status"])
	}
	if body["demoMode"] != false {
		t.Errorf("Expected demoMode false, got %v", body["demoMode"])
	}
	if _, ok := body["breakers"]; ok {
		t.Error("Expected no breakers without a forwarder")
	}
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "OPTIONS", "/_api/services", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Expected CORS header, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestListServices_Empty(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "GET", "/_api/services", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var result []interface{}
	decode(t, w, &result)
	if len(result) != 0 {
		t.Errorf("Expected empty array, got %d items", len(result))
	}
}

func TestCreateService(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/_api/services", models.ServiceInput{Name: "Billing", Type: models.ServiceTypeSOAP, BasePath: "ws/billing/"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var svc models.Service
	decode(t, w, &svc)
	if svc.ID == "" {
		t.Error("Expected generated ID")
	}
	if svc.BasePath != "/ws/billing" {
		t.Errorf("Expected normalized base path, got %q", svc.BasePath)
	}
	if !svc.Enabled {
		t.Error("Expected service to be enabled")
	}

	w = env.do(t, "GET", "/_api/services", nil)
	var list []map[string]interface{}
	decode(t, w, &list)
	if len(list) != 1 || list[0]["operationCount"] != float64(0) {
		t.Errorf("Expected one service without operations, got %v", list)
	}
}

func TestCreateService_Validation(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name  string
		input models.ServiceInput
	}{
		{"missing name", models.ServiceInput{BasePath: "/x"}},
		{"unknown type", models.ServiceInput{Name: "x", Type: "grpc"}},
		{"invalid document", models.ServiceInput{Content: "not: [openapi"}},
		{"soap import", models.ServiceInput{Type: models.ServiceTypeSOAP, Content: petsDocument}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/_api/services", tt.input)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestCreateService_Import(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/_api/services", models.ServiceInput{Name: "Pets", BasePath: "/petstore", Content: petsDocument})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created map[string]interface{}
	decode(t, w, &created)
	if created["operationCount"] != float64(1) {
		t.Errorf("Expected 1 operation, got %v", created["operationCount"])
	}
	if created["name"] != "Pets" {
		t.Errorf("Expected name override, got %v", created["name"])
	}

	w = env.do(t, "GET", "/_api/routes", nil)
	if !strings.Contains(w.Body.String(), "/petstore/pets/{id}") {
		t.Errorf("Expected imported route, got %s", w.Body.String())
	}

	w = env.do(t, "GET", "/petstore/pets/7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected proxied status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"name":"Rex"}` {
		t.Errorf("Expected example body, got %q", w.Body.String())
	}
}

func TestGetService_NotFound(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "GET", "/_api/services/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestUpdateService_BasePath(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom, mock("r1", "ok"))

	w := env.do(t, "PUT", "/_api/services/svc-1", map[string]interface{}{"basePath": "v2/"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	if w := env.do(t, "GET", "/api/users/1", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected old path to be unrouted, got %d", w.Code)
	}
	if w := env.do(t, "GET", "/v2/users/1", nil); w.Code != http.StatusOK {
		t.Errorf("Expected new path to be routed, got %d", w.Code)
	}
}

func TestEnableDisableService(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom, mock("r1", "ok"))

	if w := env.do(t, "PUT", "/_api/services/svc-1/disable", nil); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := env.do(t, "GET", "/api/users/1", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected disabled service to be unrouted, got %d", w.Code)
	}

	if w := env.do(t, "PUT", "/_api/services/svc-1/enable", nil); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := env.do(t, "GET", "/api/users/1", nil); w.Code != http.StatusOK {
		t.Errorf("Expected enabled service to be routed, got %d", w.Code)
	}

	if w := env.do(t, "PUT", "/_api/services/missing/enable", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteService(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom, mock("r1", "ok"))
	env.audit.Append(&models.Event{ServiceID: "svc-1", Method: "GET", URI: "/api/users/1"})

	if w := env.do(t, "DELETE", "/_api/services/svc-1", nil); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if _, err := env.store.GetOperation("op-1"); err == nil {
		t.Error("Expected operation to be deleted with its service")
	}
	if events := env.audit.GetEvents(&models.EventFilter{}); len(events) != 0 {
		t.Errorf("Expected service events to be cleared, got %d", len(events))
	}
	if w := env.do(t, "GET", "/api/users/1", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected deleted service to be unrouted, got %d", w.Code)
	}
	if w := env.do(t, "DELETE", "/_api/services/svc-1", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", w.Code)
	}
}

func TestCreateOperation(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom, mock("r1", "ok"))

	w := env.do(t, "POST", "/_api/services/svc-1/operations", models.OperationInput{
		Name:   "listOrders",
		Method: "get",
		URI:    "/orders",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var op models.Operation
	decode(t, w, &op)
	if op.Method != "GET" {
		t.Errorf("Expected upper-cased method, got %q", op.Method)
	}
	if op.Status != models.StatusMocked || op.ResponseStrategy != models.StrategyRandom {
		t.Errorf("Expected MOCKED/RANDOM defaults, got %s/%s", op.Status, op.ResponseStrategy)
	}

	w = env.do(t, "GET", "/_api/services/svc-1/operations", nil)
	var summaries []models.OperationSummary
	decode(t, w, &summaries)
	if len(summaries) != 2 {
		t.Errorf("Expected 2 operations, got %d", len(summaries))
	}

	// No responses yet
	if w := env.do(t, "GET", "/api/orders", nil); w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 without candidates, got %d", w.Code)
	}
}

func TestCreateOperation_Validation(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom)
	soap := &models.Service{ID: "svc-soap", Name: "Billing", Type: models.ServiceTypeSOAP, BasePath: "/ws", Enabled: true}
	if err := env.store.CreateService(soap); err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}

	tests := []struct {
		name    string
		service string
		input   models.OperationInput
		code    int
	}{
		{"missing uri", "svc-1", models.OperationInput{Method: "GET"}, http.StatusBadRequest},
		{"relative uri", "svc-1", models.OperationInput{Method: "GET", URI: "orders"}, http.StatusBadRequest},
		{"missing method", "svc-1", models.OperationInput{URI: "/orders"}, http.StatusBadRequest},
		{"unknown status", "svc-1", models.OperationInput{Method: "GET", URI: "/orders", Status: "PAUSED"}, http.StatusBadRequest},
		{"unknown strategy", "svc-1", models.OperationInput{Method: "GET", URI: "/orders", ResponseStrategy: "ROUND_ROBIN"}, http.StatusBadRequest},
		{"multiple without subs", "svc-1", models.OperationInput{Method: "GET", URI: "/orders", ResponseStrategy: models.StrategyMultiple}, http.StatusBadRequest},
		{"nested multiple", "svc-1", models.OperationInput{Method: "GET", URI: "/orders", ResponseStrategy: models.StrategyMultiple,
			MultipleStrategies: []models.ResponseStrategy{models.StrategyMultiple}}, http.StatusBadRequest},
		{"negative delay", "svc-1", models.OperationInput{Method: "GET", URI: "/orders", NetworkDelay: -5}, http.StatusBadRequest},
		{"delay at limit", "svc-1", models.OperationInput{Method: "GET", URI: "/orders", NetworkDelay: 60000}, http.StatusCreated},
		{"delay too large", "svc-1", models.OperationInput{Method: "GET", URI: "/orders", NetworkDelay: 60001}, http.StatusBadRequest},
		{"soap without identifier", "svc-soap", models.OperationInput{Name: "x"}, http.StatusBadRequest},
		{"soap operation", "svc-soap", models.OperationInput{Identifier: "GetInvoice"}, http.StatusCreated},
		{"unknown service", "missing", models.OperationInput{Method: "GET", URI: "/x"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/_api/services/"+tt.service+"/operations", tt.input)
			if w.Code != tt.code {
				t.Errorf("Expected status %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetOperation(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom, mock("r1", "one"), mock("r2", "two"))

	w := env.do(t, "GET", "/_api/operations/op-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var op models.Operation
	decode(t, w, &op)
	if len(op.MockResponses) != 2 {
		t.Errorf("Expected 2 mock responses, got %d", len(op.MockResponses))
	}

	if w := env.do(t, "GET", "/_api/operations/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestSetOperationStatus(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom, mock("r1", "ok"))

	w := env.do(t, "PUT", "/_api/operations/op-1/status", map[string]string{"status": "DISABLED"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := env.do(t, "GET", "/api/users/1", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected disabled operation to answer 503, got %d", w.Code)
	}

	w = env.do(t, "PUT", "/_api/operations/op-1/status", map[string]string{"status": "SLEEPING"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	w = env.do(t, "PUT", "/_api/operations/missing/status", map[string]string{"status": "ECHO"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestUpdateOperation_SequenceIndexResetsCursor(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategySequence, mock("r1", "one"), mock("r2", "two"), mock("r3", "three"))

	for _, expected := range []string{"one", "two"} {
		if w := env.do(t, "GET", "/api/users/1", nil); w.Body.String() != expected {
			t.Fatalf("Expected %q, got %q", expected, w.Body.String())
		}
	}

	w := env.do(t, "PUT", "/_api/operations/op-1", map[string]interface{}{"currentResponseSequenceIndex": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if w := env.do(t, "GET", "/api/users/1", nil); w.Body.String() != "one" {
		t.Errorf("Expected sequence to restart, got %q", w.Body.String())
	}
}

func TestResetSequence(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategySequence, mock("r1", "one"), mock("r2", "two"))

	env.do(t, "GET", "/api/users/1", nil)

	if w := env.do(t, "POST", "/_api/operations/op-1/sequence/reset", nil); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := env.do(t, "GET", "/api/users/1", nil); w.Body.String() != "one" {
		t.Errorf("Expected sequence to restart, got %q", w.Body.String())
	}
	if w := env.do(t, "POST", "/_api/operations/missing/sequence/reset", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestUpdateOperation_Invalid(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom, mock("r1", "ok"))

	w := env.do(t, "PUT", "/_api/operations/op-1", map[string]interface{}{"responseStrategy": "LOTTERY"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	op, err := env.store.GetOperation("op-1")
	if err != nil {
		t.Fatalf("GetOperation failed: %v", err)
	}
	if op.ResponseStrategy != models.StrategyRandom {
		t.Errorf("Expected strategy to be unchanged, got %s", op.ResponseStrategy)
	}

	w = env.do(t, "PUT", "/_api/operations/op-1", map[string]interface{}{"networkDelay": 600000})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for oversized delay, got %d", w.Code)
	}
}

func TestDeleteOperation(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom, mock("r1", "ok"))

	if w := env.do(t, "DELETE", "/_api/operations/op-1", nil); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := env.do(t, "GET", "/api/users/1", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected deleted operation to be unrouted, got %d", w.Code)
	}
}

func TestMockResponseLifecycle(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom)

	w := env.do(t, "POST", "/_api/operations/op-1/responses", models.MockResponseInput{
		Name:    "created",
		Body:    `{"id":1}`,
		Headers: []models.HTTPHeader{{Name: "Content-Type", Value: "application/json"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.MockResponse
	decode(t, w, &resp)
	if resp.HTTPStatusCode != http.StatusOK {
		t.Errorf("Expected default status code 200, got %d", resp.HTTPStatusCode)
	}
	if resp.Status != models.MockResponseEnabled {
		t.Errorf("Expected ENABLED by default, got %s", resp.Status)
	}

	if w := env.do(t, "GET", "/api/users/1", nil); w.Body.String() != `{"id":1}` {
		t.Errorf("Expected new response to be served, got %q", w.Body.String())
	}

	w = env.do(t, "PUT", "/_api/responses/"+resp.ID, map[string]interface{}{"body": "updated", "httpStatusCode": 202})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	w = env.do(t, "GET", "/api/users/1", nil)
	if w.Code != http.StatusAccepted || w.Body.String() != "updated" {
		t.Errorf("Expected updated response, got %d %q", w.Code, w.Body.String())
	}

	w = env.do(t, "GET", "/_api/operations/op-1/responses", nil)
	var list []models.MockResponse
	decode(t, w, &list)
	if len(list) != 1 {
		t.Errorf("Expected 1 response, got %d", len(list))
	}

	if w := env.do(t, "DELETE", "/_api/responses/"+resp.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := env.do(t, "GET", "/_api/responses/"+resp.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}
}

func TestCreateMockResponse_Validation(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom)

	tests := []struct {
		name      string
		operation string
		input     models.MockResponseInput
		code      int
	}{
		{"bad status code", "op-1", models.MockResponseInput{HTTPStatusCode: 42}, http.StatusBadRequest},
		{"bad status", "op-1", models.MockResponseInput{Status: "MAYBE"}, http.StatusBadRequest},
		{"bad condition", "op-1", models.MockResponseInput{Conditions: []models.Condition{{Source: "cookie", Key: "x", Operator: models.OpEquals}}}, http.StatusBadRequest},
		{"unknown operation", "missing", models.MockResponseInput{}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/_api/operations/"+tt.operation+"/responses", tt.input)
			if w.Code != tt.code {
				t.Errorf("Expected status %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestStats(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom, mock("r1", "ok"))

	env.do(t, "GET", "/api/users/1", nil)
	env.do(t, "GET", "/api/users/2", nil)
	env.do(t, "GET", "/api/unknown", nil)

	w := env.do(t, "GET", "/_api/stats", nil)
	var global models.GlobalStats
	decode(t, w, &global)
	if global.TotalRequests != 3 {
		t.Errorf("Expected 3 requests, got %d", global.TotalRequests)
	}
	if global.TotalErrors != 1 {
		t.Errorf("Expected 1 error, got %d", global.TotalErrors)
	}
	if global.ActiveServices != 1 || global.TotalOperations != 1 {
		t.Errorf("Expected 1 service and 1 operation, got %d/%d", global.ActiveServices, global.TotalOperations)
	}

	w = env.do(t, "GET", "/_api/stats/operations/op-1", nil)
	var opStats models.OperationStat
	decode(t, w, &opStats)
	if opStats.TotalRequests != 2 {
		t.Errorf("Expected 2 operation requests, got %d", opStats.TotalRequests)
	}

	if w := env.do(t, "GET", "/_api/stats/services/svc-1", nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w := env.do(t, "GET", "/_api/stats/services/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	env.do(t, "POST", "/_api/stats/reset", nil)
	if env.collector.GetOperationStats("op-1") != nil {
		t.Error("Expected stats to be reset")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom, mock("r1", "ok"))
	env.do(t, "GET", "/api/users/1", nil)

	w := env.do(t, "GET", "/_api/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "servicevirt_dispatch_requests_total") {
		t.Error("Expected dispatch counter in metrics output")
	}
}

func TestEvents(t *testing.T) {
	env := setupTestRouter(t)
	env.audit.Append(&models.Event{ID: "e1", ServiceID: "svc-1", Method: "GET", URI: "/a", StatusCode: 200})
	env.audit.Append(&models.Event{ID: "e2", ServiceID: "svc-2", Method: "POST", URI: "/b", Failure: "boom"})
	env.audit.Append(&models.Event{ID: "e3", ServiceID: "svc-1", Method: "POST", URI: "/c", StatusCode: 201})

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"all newest first", "", []string{"e3", "e2", "e1"}},
		{"by service", "?serviceId=svc-1", []string{"e3", "e1"}},
		{"by method", "?method=post", []string{"e3", "e2"}},
		{"failed only", "?failed=true", []string{"e2"}},
		{"limit", "?limit=1", []string{"e3"}},
		{"offset", "?offset=2", []string{"e1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "GET", "/_api/events"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var events []models.Event
			decode(t, w, &events)
			if len(events) != len(tt.expected) {
				t.Fatalf("Expected %d events, got %d", len(tt.expected), len(events))
			}
			for i, id := range tt.expected {
				if events[i].ID != id {
					t.Errorf("Expected event %d to be %s, got %s", i, id, events[i].ID)
				}
			}
		})
	}

	for _, query := range []string{"?limit=x", "?offset=-1", "?failed=maybe", "?since=yesterday"} {
		if w := env.do(t, "GET", "/_api/events"+query, nil); w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", query, w.Code)
		}
	}

	if w := env.do(t, "GET", "/_api/events/e2", nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w := env.do(t, "GET", "/_api/events/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	env.do(t, "DELETE", "/_api/events?serviceId=svc-2", nil)
	if events := env.audit.GetEvents(&models.EventFilter{}); len(events) != 2 {
		t.Errorf("Expected 2 events after service clear, got %d", len(events))
	}
	env.do(t, "DELETE", "/_api/events", nil)
	if events := env.audit.GetEvents(&models.EventFilter{}); len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}

func TestDispatchIsAudited(t *testing.T) {
	env := setupTestRouter(t)
	env.seed(t, models.StrategyRandom, mock("r1", "ok"))

	env.do(t, "GET", "/api/users/1", nil)

	deadline := time.Now().Add(2 * time.Second)
	for {
		events := env.audit.GetEvents(&models.EventFilter{OperationID: "op-1"})
		if len(events) == 1 {
			if events[0].MockResponseID != "r1" {
				t.Errorf("Expected mock response r1, got %s", events[0].MockResponseID)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected 1 audited event, got %d", len(events))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNoRouteWithoutProxy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStorage()
	auditSvc := audit.NewService(10, 1, nil)
	defer auditSvc.Close()

	router := NewRouter(Options{
		Store:      store,
		Catalog:    catalog.New(store, nil),
		Dispatcher: dispatch.New(dispatch.Options{}),
		Collector:  stats.NewCollector(nil),
		Audit:      auditSvc,
	})

	w := httptest.NewRecorder()
	router.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/anything", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
