package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/prasenjit/servicevirt/internal/models"
)

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage implements Storage interface with in-memory storage
type MemoryStorage struct {
	mu         sync.RWMutex
	services   map[string]*models.Service
	operations map[string]*models.Operation // stored without mock responses
	responses  map[string]*models.MockResponse
	nextOrder  int64
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		services:   make(map[string]*models.Service),
		operations: make(map[string]*models.Operation),
		responses:  make(map[string]*models.MockResponse),
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %w: %s", kind, ErrNotFound, id)
}

// CreateService creates a new service
func (m *MemoryStorage) CreateService(svc *models.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.services[svc.ID]; exists {
		return fmt.Errorf("service with ID %s already exists", svc.ID)
	}

	c := *svc
	m.services[svc.ID] = &c
	return nil
}

// GetService retrieves a service by ID
func (m *MemoryStorage) GetService(id string) (*models.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	svc, exists := m.services[id]
	if !exists {
		return nil, notFound("service", id)
	}

	c := *svc
	return &c, nil
}

// GetAllServices retrieves all services sorted by name
func (m *MemoryStorage) GetAllServices() ([]*models.Service, error) {
	return m.listServices(func(*models.Service) bool { return true }), nil
}

// GetEnabledServices retrieves all enabled services sorted by name
func (m *MemoryStorage) GetEnabledServices() ([]*models.Service, error) {
	return m.listServices(func(svc *models.Service) bool { return svc.Enabled }), nil
}

func (m *MemoryStorage) listServices(keep func(*models.Service) bool) []*models.Service {
	m.mu.RLock()
	defer m.mu.RUnlock()

	services := make([]*models.Service, 0, len(m.services))
	for _, svc := range m.services {
		if keep(svc) {
			c := *svc
			services = append(services, &c)
		}
	}

	sort.Slice(services, func(i, j int) bool {
		return services[i].Name < services[j].Name
	})
	return services
}

// UpdateService updates a service
func (m *MemoryStorage) UpdateService(svc *models.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.services[svc.ID]; !exists {
		return notFound("service", svc.ID)
	}

	c := *svc
	m.services[svc.ID] = &c
	return nil
}

// DeleteService deletes a service with its operations and their responses
func (m *MemoryStorage) DeleteService(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.services[id]; !exists {
		return notFound("service", id)
	}

	for opID, op := range m.operations {
		if op.ServiceID == id {
			m.deleteOperationLocked(opID)
		}
	}
	delete(m.services, id)
	return nil
}

// CreateOperation creates a new operation. Attached mock responses are stored too.
func (m *MemoryStorage) CreateOperation(op *models.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.operations[op.ID]; exists {
		return fmt.Errorf("operation with ID %s already exists", op.ID)
	}
	if _, exists := m.services[op.ServiceID]; !exists {
		return notFound("service", op.ServiceID)
	}

	stored := op.Clone()
	responses := stored.MockResponses
	stored.MockResponses = nil
	m.operations[op.ID] = stored

	for i := range responses {
		resp := &responses[i]
		resp.OperationID = op.ID
		m.insertResponseLocked(resp)
	}
	return nil
}

// GetOperation retrieves an operation by ID with its mock responses
func (m *MemoryStorage) GetOperation(id string) (*models.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	op, exists := m.operations[id]
	if !exists {
		return nil, notFound("operation", id)
	}
	return m.assembleLocked(op), nil
}

// GetOperationsByService retrieves all operations for a service
func (m *MemoryStorage) GetOperationsByService(serviceID string) ([]*models.Operation, error) {
	return m.listOperations(func(op *models.Operation) bool { return op.ServiceID == serviceID }), nil
}

// GetAllOperations retrieves all operations
func (m *MemoryStorage) GetAllOperations() ([]*models.Operation, error) {
	return m.listOperations(func(*models.Operation) bool { return true }), nil
}

func (m *MemoryStorage) listOperations(keep func(*models.Operation) bool) []*models.Operation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ops := make([]*models.Operation, 0)
	for _, op := range m.operations {
		if keep(op) {
			ops = append(ops, m.assembleLocked(op))
		}
	}

	// Sort by URI then method
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].URI != ops[j].URI {
			return ops[i].URI < ops[j].URI
		}
		return ops[i].Method < ops[j].Method
	})
	return ops
}

// assembleLocked copies op and attaches its responses in declaration order
func (m *MemoryStorage) assembleLocked(op *models.Operation) *models.Operation {
	c := op.Clone()
	c.MockResponses = nil
	for _, resp := range m.responsesOfLocked(op.ID) {
		c.MockResponses = append(c.MockResponses, *resp.Clone())
	}
	return c
}

func (m *MemoryStorage) responsesOfLocked(opID string) []*models.MockResponse {
	var responses []*models.MockResponse
	for _, resp := range m.responses {
		if resp.OperationID == opID {
			responses = append(responses, resp)
		}
	}
	sort.Slice(responses, func(i, j int) bool {
		if responses[i].Order != responses[j].Order {
			return responses[i].Order < responses[j].Order
		}
		return responses[i].ID < responses[j].ID
	})
	return responses
}

// UpdateOperation updates an operation's settings. Mock responses are managed
// through their own methods and are not touched.
func (m *MemoryStorage) UpdateOperation(op *models.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.operations[op.ID]; !exists {
		return notFound("operation", op.ID)
	}

	stored := op.Clone()
	stored.MockResponses = nil
	m.operations[op.ID] = stored
	return nil
}

// DeleteOperation deletes an operation and its responses
func (m *MemoryStorage) DeleteOperation(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.operations[id]; !exists {
		return notFound("operation", id)
	}

	m.deleteOperationLocked(id)
	return nil
}

func (m *MemoryStorage) deleteOperationLocked(id string) {
	for respID, resp := range m.responses {
		if resp.OperationID == id {
			delete(m.responses, respID)
		}
	}
	delete(m.operations, id)
}

// CreateMockResponse creates a new mock response at the end of its operation
func (m *MemoryStorage) CreateMockResponse(resp *models.MockResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if resp.ID == "" {
		resp.ID = uuid.New().String()
	}
	if _, exists := m.responses[resp.ID]; exists {
		return fmt.Errorf("mock response with ID %s already exists", resp.ID)
	}
	if _, exists := m.operations[resp.OperationID]; !exists {
		return notFound("operation", resp.OperationID)
	}

	resp.Order = m.insertResponseLocked(resp.Clone()).Order
	return nil
}

// insertResponseLocked stores resp with the next declaration order
func (m *MemoryStorage) insertResponseLocked(resp *models.MockResponse) *models.MockResponse {
	if resp.ID == "" {
		resp.ID = uuid.New().String()
	}
	m.nextOrder++
	resp.Order = m.nextOrder
	m.responses[resp.ID] = resp
	return resp
}

// GetMockResponse retrieves a mock response by ID
func (m *MemoryStorage) GetMockResponse(id string) (*models.MockResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resp, exists := m.responses[id]
	if !exists {
		return nil, notFound("mock response", id)
	}
	return resp.Clone(), nil
}

// GetMockResponsesByOperation retrieves the responses of an operation in declaration order
func (m *MemoryStorage) GetMockResponsesByOperation(opID string) ([]*models.MockResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.responsesOfLocked(opID)
	responses := make([]*models.MockResponse, 0, len(stored))
	for _, resp := range stored {
		responses = append(responses, resp.Clone())
	}
	return responses, nil
}

// UpdateMockResponse updates a mock response, keeping its position
func (m *MemoryStorage) UpdateMockResponse(resp *models.MockResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.responses[resp.ID]
	if !exists {
		return notFound("mock response", resp.ID)
	}

	c := resp.Clone()
	c.OperationID = existing.OperationID
	c.Order = existing.Order
	m.responses[resp.ID] = c
	return nil
}

// DeleteMockResponse deletes a mock response
func (m *MemoryStorage) DeleteMockResponse(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.responses[id]; !exists {
		return notFound("mock response", id)
	}

	delete(m.responses, id)
	return nil
}

// LoadOperation returns a snapshot of an operation for one dispatch
func (m *MemoryStorage) LoadOperation(id string) (*models.Operation, error) {
	return m.GetOperation(id)
}

// SaveOperationStatus changes an operation's status
func (m *MemoryStorage) SaveOperationStatus(id string, status models.OperationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, exists := m.operations[id]
	if !exists {
		return notFound("operation", id)
	}
	op.Status = status
	return nil
}

// SaveSequenceIndex stores an operation's sequence cursor
func (m *MemoryStorage) SaveSequenceIndex(id string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, exists := m.operations[id]
	if !exists {
		return notFound("operation", id)
	}
	op.CurrentResponseSequenceIndex = index
	return nil
}

// AppendMockResponse adds a response after the operation's existing ones
func (m *MemoryStorage) AppendMockResponse(operationID string, resp *models.MockResponse) error {
	resp.OperationID = operationID
	return m.CreateMockResponse(resp)
}

// Close is a no-op for memory storage
func (m *MemoryStorage) Close() error {
	return nil
}
