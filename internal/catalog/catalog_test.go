package catalog

import (
	"errors"
	"testing"

	"github.com/prasenjit/servicevirt/internal/models"
	"github.com/prasenjit/servicevirt/internal/storage"
)

func newStore(t *testing.T) *storage.MemoryStorage {
	t.Helper()

	store := storage.NewMemoryStorage()
	services := []*models.Service{
		{ID: "users", Name: "Users", Type: models.ServiceTypeREST, BasePath: "/api/v1", Enabled: true},
		{ID: "billing", Name: "Billing", Type: models.ServiceTypeSOAP, BasePath: "/ws/billing", Enabled: true},
		{ID: "legacy", Name: "Legacy", Type: models.ServiceTypeREST, BasePath: "/legacy", Enabled: false},
	}
	for _, svc := range services {
		if err := store.CreateService(svc); err != nil {
			t.Fatalf("CreateService failed: %v", err)
		}
	}

	ops := []*models.Operation{
		{ID: "get-user", ServiceID: "users", Method: "get", URI: "/users/{id}"},
		{ID: "get-me", ServiceID: "users", Method: "GET", URI: "/users/me"},
		{ID: "get-file", ServiceID: "users", Method: "GET", URI: "/files/{name}.json"},
		{ID: "create-user", ServiceID: "users", Method: "POST", URI: "/users"},
		{ID: "get-invoice", ServiceID: "billing", URI: "/", Identifier: "GetInvoice"},
		{ID: "pay-invoice", ServiceID: "billing", URI: "/", Identifier: "PayInvoice"},
		{ID: "legacy-op", ServiceID: "legacy", Method: "GET", URI: "/ping"},
	}
	for _, op := range ops {
		if err := store.CreateOperation(op); err != nil {
			t.Fatalf("CreateOperation failed: %v", err)
		}
	}
	return store
}

func TestResolve(t *testing.T) {
	c := New(newStore(t), nil)

	tests := []struct {
		name      string
		method    string
		path      string
		soapOp    string
		expected  string
		paramKey  string
		paramWant string
	}{
		{"parameterized", "GET", "/api/v1/users/42", "", "get-user", "id", "42"},
		{"method case insensitive", "get", "/api/v1/users/42", "", "get-user", "id", "42"},
		{"literal beats parameter", "GET", "/api/v1/users/me", "", "get-me", "", ""},
		{"literal case insensitive", "GET", "/API/V1/Users/me", "", "get-me", "", ""},
		{"trailing slash", "GET", "/api/v1/users/42/", "", "get-user", "id", "42"},
		{"suffix template", "GET", "/api/v1/files/report.json", "", "get-file", "name", "report"},
		{"other method", "POST", "/api/v1/users", "", "create-user", "", ""},
		{"soap by identifier", "POST", "/ws/billing", "PayInvoice", "pay-invoice", "", ""},
		{"soap identifier case insensitive", "POST", "/ws/billing", "getinvoice", "get-invoice", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := c.Resolve(tt.method, tt.path, tt.soapOp)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if match.OperationID != tt.expected {
				t.Errorf("Expected operation %q, got %q", tt.expected, match.OperationID)
			}
			if tt.paramKey != "" && match.PathParameters[tt.paramKey] != tt.paramWant {
				t.Errorf("Expected %s=%q, got %v", tt.paramKey, tt.paramWant, match.PathParameters)
			}
			if tt.paramKey == "" && len(match.PathParameters) != 0 {
				t.Errorf("Expected no path parameters, got %v", match.PathParameters)
			}
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	c := New(newStore(t), nil)

	tests := []struct {
		name   string
		method string
		path   string
		soapOp string
	}{
		{"unknown path", "GET", "/api/v1/orders", ""},
		{"extra segment", "GET", "/api/v1/users/42/posts", ""},
		{"wrong method", "DELETE", "/api/v1/users/42", ""},
		{"disabled service", "GET", "/legacy/ping", ""},
		{"unknown soap operation", "POST", "/ws/billing", "Refund"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Resolve(tt.method, tt.path, tt.soapOp)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestReload(t *testing.T) {
	store := newStore(t)
	c := New(store, nil)

	if _, err := c.Resolve("GET", "/api/v1/health", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before reload, got %v", err)
	}

	if err := store.CreateOperation(&models.Operation{ID: "health", ServiceID: "users", Method: "GET", URI: "/health"}); err != nil {
		t.Fatalf("CreateOperation failed: %v", err)
	}
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	match, err := c.Resolve("GET", "/api/v1/health", "")
	if err != nil {
		t.Fatalf("Resolve after reload failed: %v", err)
	}
	if match.Service.ID != "users" {
		t.Errorf("Expected service 'users', got %q", match.Service.ID)
	}
}

func TestRoutes(t *testing.T) {
	c := New(newStore(t), nil)

	routes := c.Routes()
	if len(routes["GET"]) != 3 {
		t.Errorf("Expected 3 GET routes, got %v", routes["GET"])
	}
	if routes["GET"][0] != "/api/v1/users/me" {
		t.Errorf("Expected literal route first, got %q", routes["GET"][0])
	}

	found := false
	for _, r := range routes["POST"] {
		if r == "/ws/billing#GetInvoice" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected SOAP route with identifier, got %v", routes["POST"])
	}
}

type failingSource struct{}

func (failingSource) GetEnabledServices() ([]*models.Service, error) {
	return nil, errors.New("store unavailable")
}

func (failingSource) GetOperationsByService(serviceID string) ([]*models.Operation, error) {
	return nil, nil
}

func TestReloadError(t *testing.T) {
	c := New(failingSource{}, nil)

	if err := c.Reload(); err == nil {
		t.Error("Expected error from failing source")
	}
	if _, err := c.Resolve("GET", "/anything", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound with empty routes, got %v", err)
	}
}
