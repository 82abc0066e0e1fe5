package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prasenjit/servicevirt/internal/audit"
	"github.com/prasenjit/servicevirt/internal/catalog"
	"github.com/prasenjit/servicevirt/internal/dispatch"
	"github.com/prasenjit/servicevirt/internal/models"
	"github.com/prasenjit/servicevirt/internal/parser"
	"github.com/prasenjit/servicevirt/internal/stats"
	"github.com/prasenjit/servicevirt/internal/storage"
	"github.com/prasenjit/servicevirt/internal/transport"
)

const defaultEventLimit = 100

// maxNetworkDelay bounds simulated delays, in milliseconds, below the server
// write timeout
const maxNetworkDelay = 60000

// Handler handles API requests
type Handler struct {
	store      storage.Storage
	catalog    *catalog.Catalog
	dispatcher *dispatch.Dispatcher
	collector  *stats.Collector
	audit      *audit.Service
	forwarder  *transport.Forwarder
	parser     *parser.Parser
	logger     *zap.Logger
	startedAt  time.Time
}

// NewHandler creates a new API handler
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:      opts.Store,
		catalog:    opts.Catalog,
		dispatcher: opts.Dispatcher,
		collector:  opts.Collector,
		audit:      opts.Audit,
		forwarder:  opts.Forwarder,
		parser:     parser.NewParser(),
		logger:     logger,
		startedAt:  time.Now(),
	}
}

// reload rebuilds the routing table after a mutation
func (h *Handler) reload() {
	if err := h.catalog.Reload(); err != nil {
		h.logger.Error("Failed to reload routes", zap.Error(err))
	}
}

// storeError maps a storage error onto a response
func storeError(c *gin.Context, err error, what string) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// ListServices returns all services
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.store.GetAllServices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := make([]map[string]interface{}, len(services))
	for i, svc := range services {
		ops, _ := h.store.GetOperationsByService(svc.ID)
		result[i] = map[string]interface{}{
			"id":             svc.ID,
			"name":           svc.Name,
			"type":           svc.Type,
			"basePath":       svc.BasePath,
			"description":    svc.Description,
			"enabled":        svc.Enabled,
			"createdAt":      svc.CreatedAt,
			"updatedAt":      svc.UpdatedAt,
			"operationCount": len(ops),
		}
	}

	c.JSON(http.StatusOK, result)
}

// CreateService creates a service. When content is given it is imported as an
// OpenAPI document together with its operations.
func (h *Handler) CreateService(c *gin.Context) {
	var input models.ServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Content != "" {
		h.importService(c, input)
		return
	}

	if strings.TrimSpace(input.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if input.Type == "" {
		input.Type = models.ServiceTypeREST
	}
	if input.Type != models.ServiceTypeREST && input.Type != models.ServiceTypeSOAP {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown service type %q", input.Type)})
		return
	}

	now := time.Now()
	svc := &models.Service{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Type:        input.Type,
		BasePath:    parser.NormalizeBasePath(input.BasePath),
		Description: input.Description,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateService(svc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reload()
	c.JSON(http.StatusCreated, svc)
}

// importService creates a REST service from an OpenAPI document
func (h *Handler) importService(c *gin.Context, input models.ServiceInput) {
	if input.Type == models.ServiceTypeSOAP {
		c.JSON(http.StatusBadRequest, gin.H{"error": "OpenAPI import creates REST services only"})
		return
	}

	result, err := h.parser.Parse(input.Content, input.BasePath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OpenAPI document: " + err.Error()})
		return
	}

	if input.Name != "" {
		result.Service.Name = input.Name
	}
	if input.Description != "" {
		result.Service.Description = input.Description
	}

	if err := h.store.CreateService(result.Service); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	for _, op := range result.Operations {
		if err := h.store.CreateOperation(op); err != nil {
			// Rollback service on error
			if derr := h.store.DeleteService(result.Service.ID); derr != nil {
				h.logger.Error("Failed to roll back import", zap.String("service", result.Service.ID), zap.Error(derr))
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	h.reload()
	h.logger.Info("Imported OpenAPI service",
		zap.String("service", result.Service.ID),
		zap.Int("operations", len(result.Operations)))

	c.JSON(http.StatusCreated, gin.H{
		"id":             result.Service.ID,
		"name":           result.Service.Name,
		"type":           result.Service.Type,
		"basePath":       result.Service.BasePath,
		"operationCount": len(result.Operations),
	})
}

// GetService returns a single service
func (h *Handler) GetService(c *gin.Context) {
	svc, err := h.store.GetService(c.Param("id"))
	if err != nil {
		storeError(c, err, "Service")
		return
	}

	c.JSON(http.StatusOK, svc)
}

// UpdateService updates a service
func (h *Handler) UpdateService(c *gin.Context) {
	svc, err := h.store.GetService(c.Param("id"))
	if err != nil {
		storeError(c, err, "Service")
		return
	}

	var update models.ServiceUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if update.Name != nil {
		svc.Name = *update.Name
	}
	if update.BasePath != nil {
		svc.BasePath = parser.NormalizeBasePath(*update.BasePath)
	}
	if update.Description != nil {
		svc.Description = *update.Description
	}
	if update.Enabled != nil {
		svc.Enabled = *update.Enabled
	}
	svc.UpdatedAt = time.Now()

	if err := h.store.UpdateService(svc); err != nil {
		storeError(c, err, "Service")
		return
	}

	h.reload()
	c.JSON(http.StatusOK, svc)
}

// DeleteService deletes a service with its operations
func (h *Handler) DeleteService(c *gin.Context) {
	id := c.Param("id")

	ops, _ := h.store.GetOperationsByService(id)

	if err := h.store.DeleteService(id); err != nil {
		storeError(c, err, "Service")
		return
	}

	for _, op := range ops {
		h.dispatcher.ResetCursor(op.ID)
	}
	h.audit.ClearEventsByService(id)
	h.reload()

	c.JSON(http.StatusOK, gin.H{"message": "Service deleted"})
}

// EnableService enables a service
func (h *Handler) EnableService(c *gin.Context) {
	h.setServiceEnabled(c, true)
}

// DisableService disables a service
func (h *Handler) DisableService(c *gin.Context) {
	h.setServiceEnabled(c, false)
}

func (h *Handler) setServiceEnabled(c *gin.Context, enabled bool) {
	svc, err := h.store.GetService(c.Param("id"))
	if err != nil {
		storeError(c, err, "Service")
		return
	}

	svc.Enabled = enabled
	svc.UpdatedAt = time.Now()

	if err := h.store.UpdateService(svc); err != nil {
		storeError(c, err, "Service")
		return
	}

	h.reload()

	if enabled {
		c.JSON(http.StatusOK, gin.H{"message": "Service enabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service disabled"})
}

// ListOperations returns all operations of a service
func (h *Handler) ListOperations(c *gin.Context) {
	serviceID := c.Param("id")
	if _, err := h.store.GetService(serviceID); err != nil {
		storeError(c, err, "Service")
		return
	}

	ops, err := h.store.GetOperationsByService(serviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summaries := make([]models.OperationSummary, len(ops))
	for i, op := range ops {
		summaries[i] = op.Summary()
	}

	c.JSON(http.StatusOK, summaries)
}

// CreateOperation adds an operation to a service
func (h *Handler) CreateOperation(c *gin.Context) {
	svc, err := h.store.GetService(c.Param("id"))
	if err != nil {
		storeError(c, err, "Service")
		return
	}

	var input models.OperationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	op := &models.Operation{
		ID:                         uuid.New().String(),
		ServiceID:                  svc.ID,
		Name:                       input.Name,
		Method:                     strings.ToUpper(input.Method),
		URI:                        input.URI,
		Identifier:                 input.Identifier,
		Status:                     input.Status,
		ResponseStrategy:           input.ResponseStrategy,
		MultipleStrategies:         input.MultipleStrategies,
		ForwardedEndpoint:          input.ForwardedEndpoint,
		SimulateNetworkDelay:       input.SimulateNetworkDelay,
		NetworkDelay:               input.NetworkDelay,
		DefaultXPathMockResponseID: input.DefaultXPathMockResponseID,
	}

	// Set defaults
	if op.Status == "" {
		op.Status = models.StatusMocked
	}
	if op.ResponseStrategy == "" {
		op.ResponseStrategy = models.StrategyRandom
	}
	if op.Method == "" && svc.Type == models.ServiceTypeSOAP {
		op.Method = http.MethodPost
	}
	if op.Name == "" {
		op.Name = op.Identifier
	}

	if err := validateOperation(svc, op); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.CreateOperation(op); err != nil {
		storeError(c, err, "Service")
		return
	}

	h.reload()
	c.JSON(http.StatusCreated, op)
}

// validateOperation checks the operation's routing keys and enums
func validateOperation(svc *models.Service, op *models.Operation) error {
	if op.Method == "" {
		return errors.New("method is required")
	}
	if svc.Type == models.ServiceTypeSOAP {
		if op.Identifier == "" {
			return errors.New("identifier is required for SOAP operations")
		}
	} else if op.URI == "" {
		return errors.New("uri is required")
	}
	if op.URI != "" && !strings.HasPrefix(op.URI, "/") {
		return fmt.Errorf("uri %q must start with /", op.URI)
	}
	if !op.Status.Valid() {
		return fmt.Errorf("unknown status %q", op.Status)
	}
	if !op.ResponseStrategy.Valid() {
		return fmt.Errorf("unknown response strategy %q", op.ResponseStrategy)
	}
	for _, s := range op.MultipleStrategies {
		if !s.Valid() || s == models.StrategyMultiple {
			return fmt.Errorf("invalid sub-strategy %q", s)
		}
	}
	if op.ResponseStrategy == models.StrategyMultiple && len(op.MultipleStrategies) == 0 {
		return errors.New("MULTIPLE strategy requires multipleStrategies")
	}
	if op.NetworkDelay < 0 {
		return errors.New("networkDelay must not be negative")
	}
	if op.NetworkDelay > maxNetworkDelay {
		return fmt.Errorf("networkDelay must not exceed %d ms", maxNetworkDelay)
	}
	return nil
}

// GetOperation returns a single operation with its mock responses
func (h *Handler) GetOperation(c *gin.Context) {
	op, err := h.store.GetOperation(c.Param("id"))
	if err != nil {
		storeError(c, err, "Operation")
		return
	}

	c.JSON(http.StatusOK, op)
}

// UpdateOperation updates an operation's settings. Setting the sequence index
// also resets the in-memory cursor so the next SEQUENCE selection starts there.
func (h *Handler) UpdateOperation(c *gin.Context) {
	op, err := h.store.GetOperation(c.Param("id"))
	if err != nil {
		storeError(c, err, "Operation")
		return
	}
	svc, err := h.store.GetService(op.ServiceID)
	if err != nil {
		storeError(c, err, "Service")
		return
	}

	var update models.OperationUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if update.Name != nil {
		op.Name = *update.Name
	}
	if update.Status != nil {
		op.Status = *update.Status
	}
	if update.ResponseStrategy != nil {
		op.ResponseStrategy = *update.ResponseStrategy
	}
	if update.MultipleStrategies != nil {
		op.MultipleStrategies = *update.MultipleStrategies
	}
	if update.CurrentResponseSequenceIndex != nil {
		op.CurrentResponseSequenceIndex = *update.CurrentResponseSequenceIndex
	}
	if update.ForwardedEndpoint != nil {
		op.ForwardedEndpoint = *update.ForwardedEndpoint
	}
	if update.SimulateNetworkDelay != nil {
		op.SimulateNetworkDelay = *update.SimulateNetworkDelay
	}
	if update.NetworkDelay != nil {
		op.NetworkDelay = *update.NetworkDelay
	}
	if update.DefaultXPathMockResponseID != nil {
		op.DefaultXPathMockResponseID = *update.DefaultXPathMockResponseID
	}

	if err := validateOperation(svc, op); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.UpdateOperation(op); err != nil {
		storeError(c, err, "Operation")
		return
	}

	if update.CurrentResponseSequenceIndex != nil {
		h.dispatcher.ResetCursor(op.ID)
	}

	c.JSON(http.StatusOK, op)
}

// DeleteOperation deletes an operation and its mock responses
func (h *Handler) DeleteOperation(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.DeleteOperation(id); err != nil {
		storeError(c, err, "Operation")
		return
	}

	h.dispatcher.ResetCursor(id)
	h.reload()

	c.JSON(http.StatusOK, gin.H{"message": "Operation deleted"})
}

// SetOperationStatus changes how an operation handles requests
func (h *Handler) SetOperationStatus(c *gin.Context) {
	id := c.Param("id")

	var input struct {
		Status models.OperationStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", input.Status)})
		return
	}

	if err := h.store.SaveOperationStatus(id, input.Status); err != nil {
		storeError(c, err, "Operation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": input.Status})
}

// ResetSequence moves an operation's sequence cursor back to the first response
func (h *Handler) ResetSequence(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.SaveSequenceIndex(id, 0); err != nil {
		storeError(c, err, "Operation")
		return
	}
	h.dispatcher.ResetCursor(id)

	c.JSON(http.StatusOK, gin.H{"currentResponseSequenceIndex": 0})
}

// ListMockResponses returns the mock responses of an operation in declaration order
func (h *Handler) ListMockResponses(c *gin.Context) {
	opID := c.Param("id")
	if _, err := h.store.GetOperation(opID); err != nil {
		storeError(c, err, "Operation")
		return
	}

	responses, err := h.store.GetMockResponsesByOperation(opID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, responses)
}

// CreateMockResponse appends a mock response to an operation
func (h *Handler) CreateMockResponse(c *gin.Context) {
	opID := c.Param("id")

	var input models.MockResponseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := &models.MockResponse{
		ID:               uuid.New().String(),
		OperationID:      opID,
		Name:             input.Name,
		Status:           input.Status,
		Body:             input.Body,
		HTTPStatusCode:   input.HTTPStatusCode,
		Headers:          input.Headers,
		UsingExpressions: input.UsingExpressions,
		XPathExpressions: input.XPathExpressions,
		Conditions:       input.Conditions,
		ContentEncodings: input.ContentEncodings,
	}

	// Set defaults
	if resp.Status == "" {
		resp.Status = models.MockResponseEnabled
	}
	if resp.HTTPStatusCode == 0 {
		resp.HTTPStatusCode = http.StatusOK
	}

	if err := validateMockResponse(resp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.CreateMockResponse(resp); err != nil {
		storeError(c, err, "Operation")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// validateMockResponse checks the response's status code and enums
func validateMockResponse(resp *models.MockResponse) error {
	if resp.Status != models.MockResponseEnabled && resp.Status != models.MockResponseDisabled {
		return fmt.Errorf("unknown mock response status %q", resp.Status)
	}
	if resp.HTTPStatusCode < 100 || resp.HTTPStatusCode > 599 {
		return fmt.Errorf("invalid httpStatusCode %d", resp.HTTPStatusCode)
	}
	for _, cond := range resp.Conditions {
		if !cond.Valid() {
			return fmt.Errorf("invalid condition on %s %q", cond.Source, cond.Key)
		}
	}
	return nil
}

// GetMockResponse returns a single mock response
func (h *Handler) GetMockResponse(c *gin.Context) {
	resp, err := h.store.GetMockResponse(c.Param("id"))
	if err != nil {
		storeError(c, err, "Mock response")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateMockResponse updates a mock response
func (h *Handler) UpdateMockResponse(c *gin.Context) {
	resp, err := h.store.GetMockResponse(c.Param("id"))
	if err != nil {
		storeError(c, err, "Mock response")
		return
	}

	var update models.MockResponseUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if update.Name != nil {
		resp.Name = *update.Name
	}
	if update.Status != nil {
		resp.Status = *update.Status
	}
	if update.Body != nil {
		resp.Body = *update.Body
	}
	if update.HTTPStatusCode != nil {
		resp.HTTPStatusCode = *update.HTTPStatusCode
	}
	if update.Headers != nil {
		resp.Headers = *update.Headers
	}
	if update.UsingExpressions != nil {
		resp.UsingExpressions = *update.UsingExpressions
	}
	if update.XPathExpressions != nil {
		resp.XPathExpressions = *update.XPathExpressions
	}
	if update.Conditions != nil {
		resp.Conditions = *update.Conditions
	}
	if update.ContentEncodings != nil {
		resp.ContentEncodings = *update.ContentEncodings
	}

	if err := validateMockResponse(resp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.UpdateMockResponse(resp); err != nil {
		storeError(c, err, "Mock response")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteMockResponse deletes a mock response
func (h *Handler) DeleteMockResponse(c *gin.Context) {
	if err := h.store.DeleteMockResponse(c.Param("id")); err != nil {
		storeError(c, err, "Mock response")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mock response deleted"})
}

// GetGlobalStats returns global statistics
func (h *Handler) GetGlobalStats(c *gin.Context) {
	services, _ := h.store.GetEnabledServices()
	ops, _ := h.store.GetAllOperations()

	c.JSON(http.StatusOK, h.collector.GetGlobalStats(len(services), len(ops)))
}

// GetServiceStats returns statistics for a service
func (h *Handler) GetServiceStats(c *gin.Context) {
	id := c.Param("id")

	svc, err := h.store.GetService(id)
	if err != nil {
		storeError(c, err, "Service")
		return
	}

	c.JSON(http.StatusOK, h.collector.GetServiceStats(id, svc.Name))
}

// GetOperationStats returns statistics for an operation
func (h *Handler) GetOperationStats(c *gin.Context) {
	stats := h.collector.GetOperationStats(c.Param("id"))
	if stats == nil {
		c.JSON(http.StatusOK, gin.H{"message": "No statistics available"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ResetStats resets all statistics
func (h *Handler) ResetStats(c *gin.Context) {
	h.collector.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "Statistics reset"})
}

// ListEvents returns audit events, newest first
func (h *Handler) ListEvents(c *gin.Context) {
	filter := &models.EventFilter{
		ServiceID:   c.Query("serviceId"),
		OperationID: c.Query("operationId"),
		Method:      c.Query("method"),
		Limit:       defaultEventLimit,
	}

	if v := c.Query("failed"); v != "" {
		failed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid failed flag"})
			return
		}
		filter.FailedOnly = failed
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return
		}
		filter.Offset = offset
	}
	for param, target := range map[string]*time.Time{"since": &filter.StartTime, "until": &filter.EndTime} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param + " timestamp"})
			return
		}
		*target = t
	}

	c.JSON(http.StatusOK, h.audit.GetEvents(filter))
}

// GetEvent returns a single audit event
func (h *Handler) GetEvent(c *gin.Context) {
	event := h.audit.GetEvent(c.Param("id"))
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// ClearEvents clears audit events, optionally for one service
func (h *Handler) ClearEvents(c *gin.Context) {
	if serviceID := c.Query("serviceId"); serviceID != "" {
		h.audit.ClearEventsByService(serviceID)
	} else {
		h.audit.ClearEvents()
	}
	c.JSON(http.StatusOK, gin.H{"message": "Events cleared"})
}

// GetRoutes returns registered routes
func (h *Handler) GetRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Routes())
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"demoMode":  h.dispatcher.DemoMode(),
		"audit":     h.audit.GetStats(),
	}
	if h.forwarder != nil {
		body["breakers"] = h.forwarder.States()
	}
	c.JSON(http.StatusOK, body)
}
