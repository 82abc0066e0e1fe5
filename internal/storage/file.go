package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prasenjit/servicevirt/internal/models"
)

const (
	servicesDir   = "services"
	operationsDir = "operations"
	responsesDir  = "responses"
)

var _ Storage = (*FileStorage)(nil)

// FileStorage implements Storage interface with one JSON file per entity,
// served from an in-memory copy
type FileStorage struct {
	mu       sync.Mutex // serializes writes so files follow memory order
	basePath string
	memory   *MemoryStorage
}

// NewFileStorage creates a new file-based storage and loads existing data
func NewFileStorage(basePath string) (*FileStorage, error) {
	for _, dir := range []string{basePath, filepath.Join(basePath, servicesDir), filepath.Join(basePath, operationsDir), filepath.Join(basePath, responsesDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fs := &FileStorage{
		basePath: basePath,
		memory:   NewMemoryStorage(),
	}
	if err := fs.loadAll(); err != nil {
		return nil, err
	}
	return fs, nil
}

// loadJSONDir decodes every *.json file of dir into a new T. Unreadable files
// are skipped.
func loadJSONDir[T any](dir string, add func(*T)) error {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			continue
		}
		add(&v)
	}
	return nil
}

// loadAll loads all data from disk
func (f *FileStorage) loadAll() error {
	m := f.memory

	if err := loadJSONDir(filepath.Join(f.basePath, servicesDir), func(svc *models.Service) {
		m.services[svc.ID] = svc
	}); err != nil {
		return err
	}

	if err := loadJSONDir(filepath.Join(f.basePath, operationsDir), func(op *models.Operation) {
		op.MockResponses = nil
		m.operations[op.ID] = op
	}); err != nil {
		return err
	}

	return loadJSONDir(filepath.Join(f.basePath, responsesDir), func(resp *models.MockResponse) {
		m.responses[resp.ID] = resp
		if resp.Order > m.nextOrder {
			m.nextOrder = resp.Order
		}
	})
}

func (f *FileStorage) writeJSON(dir, id string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.basePath, dir, id+".json"), data, 0644)
}

func (f *FileStorage) removeJSON(dir, id string) error {
	err := os.Remove(filepath.Join(f.basePath, dir, id+".json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// saveOperation writes the stored operation, without responses
func (f *FileStorage) saveOperation(id string) error {
	f.memory.mu.RLock()
	op, ok := f.memory.operations[id]
	var c *models.Operation
	if ok {
		c = op.Clone()
	}
	f.memory.mu.RUnlock()

	if !ok {
		return notFound("operation", id)
	}
	return f.writeJSON(operationsDir, id, c)
}

func (f *FileStorage) saveResponse(id string) error {
	resp, err := f.memory.GetMockResponse(id)
	if err != nil {
		return err
	}
	return f.writeJSON(responsesDir, id, resp)
}

// CreateService creates a new service
func (f *FileStorage) CreateService(svc *models.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateService(svc); err != nil {
		return err
	}
	return f.writeJSON(servicesDir, svc.ID, svc)
}

// GetService retrieves a service by ID
func (f *FileStorage) GetService(id string) (*models.Service, error) {
	return f.memory.GetService(id)
}

// GetAllServices retrieves all services
func (f *FileStorage) GetAllServices() ([]*models.Service, error) {
	return f.memory.GetAllServices()
}

// GetEnabledServices retrieves all enabled services
func (f *FileStorage) GetEnabledServices() ([]*models.Service, error) {
	return f.memory.GetEnabledServices()
}

// UpdateService updates a service
func (f *FileStorage) UpdateService(svc *models.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.UpdateService(svc); err != nil {
		return err
	}
	return f.writeJSON(servicesDir, svc.ID, svc)
}

// DeleteService deletes a service with its operations and responses
func (f *FileStorage) DeleteService(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ops, _ := f.memory.GetOperationsByService(id)
	if err := f.memory.DeleteService(id); err != nil {
		return err
	}

	for _, op := range ops {
		f.removeOperationFiles(op)
	}
	return f.removeJSON(servicesDir, id)
}

func (f *FileStorage) removeOperationFiles(op *models.Operation) {
	for _, resp := range op.MockResponses {
		f.removeJSON(responsesDir, resp.ID)
	}
	f.removeJSON(operationsDir, op.ID)
}

// CreateOperation creates a new operation with any attached responses
func (f *FileStorage) CreateOperation(op *models.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateOperation(op); err != nil {
		return err
	}
	if err := f.saveOperation(op.ID); err != nil {
		return err
	}

	stored, err := f.memory.GetMockResponsesByOperation(op.ID)
	if err != nil {
		return err
	}
	for _, resp := range stored {
		if err := f.writeJSON(responsesDir, resp.ID, resp); err != nil {
			return err
		}
	}
	return nil
}

// GetOperation retrieves an operation by ID
func (f *FileStorage) GetOperation(id string) (*models.Operation, error) {
	return f.memory.GetOperation(id)
}

// GetOperationsByService retrieves all operations for a service
func (f *FileStorage) GetOperationsByService(serviceID string) ([]*models.Operation, error) {
	return f.memory.GetOperationsByService(serviceID)
}

// GetAllOperations retrieves all operations
func (f *FileStorage) GetAllOperations() ([]*models.Operation, error) {
	return f.memory.GetAllOperations()
}

// UpdateOperation updates an operation
func (f *FileStorage) UpdateOperation(op *models.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.UpdateOperation(op); err != nil {
		return err
	}
	return f.saveOperation(op.ID)
}

// DeleteOperation deletes an operation and its responses
func (f *FileStorage) DeleteOperation(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	op, err := f.memory.GetOperation(id)
	if err != nil {
		return err
	}
	if err := f.memory.DeleteOperation(id); err != nil {
		return err
	}
	f.removeOperationFiles(op)
	return nil
}

// CreateMockResponse creates a new mock response
func (f *FileStorage) CreateMockResponse(resp *models.MockResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateMockResponse(resp); err != nil {
		return err
	}
	return f.saveResponse(resp.ID)
}

// GetMockResponse retrieves a mock response by ID
func (f *FileStorage) GetMockResponse(id string) (*models.MockResponse, error) {
	return f.memory.GetMockResponse(id)
}

// GetMockResponsesByOperation retrieves the responses of an operation
func (f *FileStorage) GetMockResponsesByOperation(opID string) ([]*models.MockResponse, error) {
	return f.memory.GetMockResponsesByOperation(opID)
}

// UpdateMockResponse updates a mock response
func (f *FileStorage) UpdateMockResponse(resp *models.MockResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.UpdateMockResponse(resp); err != nil {
		return err
	}
	return f.saveResponse(resp.ID)
}

// DeleteMockResponse deletes a mock response
func (f *FileStorage) DeleteMockResponse(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.DeleteMockResponse(id); err != nil {
		return err
	}
	return f.removeJSON(responsesDir, id)
}

// LoadOperation returns a snapshot of an operation for one dispatch
func (f *FileStorage) LoadOperation(id string) (*models.Operation, error) {
	return f.memory.LoadOperation(id)
}

// SaveOperationStatus changes an operation's status
func (f *FileStorage) SaveOperationStatus(id string, status models.OperationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.SaveOperationStatus(id, status); err != nil {
		return err
	}
	return f.saveOperation(id)
}

// SaveSequenceIndex stores an operation's sequence cursor
func (f *FileStorage) SaveSequenceIndex(id string, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.SaveSequenceIndex(id, index); err != nil {
		return err
	}
	return f.saveOperation(id)
}

// AppendMockResponse adds a recorded response after the existing ones
func (f *FileStorage) AppendMockResponse(operationID string, resp *models.MockResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.AppendMockResponse(operationID, resp); err != nil {
		return err
	}
	return f.saveResponse(resp.ID)
}

// Close closes the storage
func (f *FileStorage) Close() error {
	return nil
}
