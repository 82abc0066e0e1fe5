// Package storage persists services, operations and mock responses.
package storage

import (
	"errors"

	"github.com/prasenjit/servicevirt/internal/models"
)

// ErrNotFound is wrapped by every lookup of a missing entity
var ErrNotFound = errors.New("not found")

// Storage defines the interface for data persistence. Returned entities are
// copies; callers must write changes back through the Update methods.
type Storage interface {
	// Service operations
	CreateService(svc *models.Service) error
	GetService(id string) (*models.Service, error)
	GetAllServices() ([]*models.Service, error)
	GetEnabledServices() ([]*models.Service, error)
	UpdateService(svc *models.Service) error
	DeleteService(id string) error

	// Operation operations. Operations are returned with their mock responses
	// attached in declaration order.
	CreateOperation(op *models.Operation) error
	GetOperation(id string) (*models.Operation, error)
	GetOperationsByService(serviceID string) ([]*models.Operation, error)
	GetAllOperations() ([]*models.Operation, error)
	UpdateOperation(op *models.Operation) error
	DeleteOperation(id string) error

	// MockResponse operations
	CreateMockResponse(resp *models.MockResponse) error
	GetMockResponse(id string) (*models.MockResponse, error)
	GetMockResponsesByOperation(opID string) ([]*models.MockResponse, error)
	UpdateMockResponse(resp *models.MockResponse) error
	DeleteMockResponse(id string) error

	// Dispatch persistence
	LoadOperation(id string) (*models.Operation, error)
	SaveOperationStatus(id string, status models.OperationStatus) error
	SaveSequenceIndex(id string, index int) error
	AppendMockResponse(operationID string, resp *models.MockResponse) error

	// Utility
	Close() error
}
