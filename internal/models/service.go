package models

import (
	"time"
)

// ServiceType identifies how requests are routed to a service's operations
type ServiceType string

const (
	ServiceTypeREST ServiceType = "rest"
	ServiceTypeSOAP ServiceType = "soap"
)

// Service groups operations mounted under a common base path (a REST resource
// collection or a SOAP port)
type Service struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        ServiceType `json:"type"`
	BasePath    string      `json:"basePath"` // Mounted path prefix for this service
	Description string      `json:"description"`
	Enabled     bool        `json:"enabled"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// ServiceInput represents input for creating a service
type ServiceInput struct {
	Name        string      `json:"name"`
	Type        ServiceType `json:"type"`
	BasePath    string      `json:"basePath"`
	Description string      `json:"description"`
	Content     string      `json:"content,omitempty"` // Optional OpenAPI document to import
}

// ServiceUpdate represents input for updating service settings
type ServiceUpdate struct {
	Name        *string `json:"name,omitempty"`
	BasePath    *string `json:"basePath,omitempty"`
	Description *string `json:"description,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}
