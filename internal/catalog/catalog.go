// Package catalog resolves inbound requests to the operation that serves them.
package catalog

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/prasenjit/servicevirt/internal/models"
	"github.com/prasenjit/servicevirt/internal/pathmatch"
)

// ErrNotFound is returned when no operation matches a request
var ErrNotFound = errors.New("no operation matches the request")

// Source lists the services and operations to route to
type Source interface {
	GetEnabledServices() ([]*models.Service, error)
	GetOperationsByService(serviceID string) ([]*models.Operation, error)
}

// Match is a resolved request
type Match struct {
	Service        *models.Service
	OperationID    string
	Template       *pathmatch.Template
	PathParameters map[string]string
}

// route represents a registered route
type route struct {
	service     *models.Service
	operationID string
	identifier  string // SOAP operation name, empty for REST
	template    *pathmatch.Template
}

// Catalog holds the routing table built from enabled services
type Catalog struct {
	source Source
	logger *zap.Logger
	mu     sync.RWMutex
	routes map[string][]*route // method -> routes
}

// New creates a catalog and loads the initial routes
func New(source Source, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		source: source,
		logger: logger,
		routes: make(map[string][]*route),
	}
	if err := c.Reload(); err != nil {
		logger.Warn("Failed to load routes", zap.Error(err))
	}
	return c
}

// Reload rebuilds the routing table from enabled services
func (c *Catalog) Reload() error {
	services, err := c.source.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("failed to list services: %w", err)
	}

	routes := make(map[string][]*route)
	for _, svc := range services {
		ops, err := c.source.GetOperationsByService(svc.ID)
		if err != nil {
			c.logger.Warn("Skipping service", zap.String("service", svc.ID), zap.Error(err))
			continue
		}

		for _, op := range ops {
			method := op.NormalizedMethod()
			if method == "" {
				method = "POST"
			}
			r := &route{
				service:     svc,
				operationID: op.ID,
				template:    pathmatch.Parse(routePath(svc.BasePath, op.URI)),
			}
			if svc.Type == models.ServiceTypeSOAP {
				r.identifier = op.Identifier
			}
			routes[method] = append(routes[method], r)
		}
	}

	for method := range routes {
		sortRoutes(routes[method])
	}

	c.mu.Lock()
	c.routes = routes
	c.mu.Unlock()

	c.logger.Debug("Routes reloaded", zap.Int("services", len(services)))
	return nil
}

// routePath joins the service base path and the operation template
func routePath(basePath, uri string) string {
	return path.Join("/", basePath, uri)
}

// sortRoutes orders routes by specificity: fewer placeholders first, then
// longer templates
func sortRoutes(routes []*route) {
	sort.SliceStable(routes, func(i, j int) bool {
		iParams := routes[i].template.ParamCount()
		jParams := routes[j].template.ParamCount()
		if iParams != jParams {
			return iParams < jParams
		}
		return len(routes[i].template.String()) > len(routes[j].template.String())
	})
}

// Resolve finds the operation serving a request. For SOAP services the
// operation name must match as well as the path.
func (c *Catalog) Resolve(method, requestPath, soapOperation string) (*Match, error) {
	segments := pathmatch.Split(requestPath)

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.routes[strings.ToUpper(method)] {
		if r.identifier != "" && !strings.EqualFold(r.identifier, soapOperation) {
			continue
		}
		if !r.template.MatchSegments(segments) {
			continue
		}
		return &Match{
			Service:        r.service,
			OperationID:    r.operationID,
			Template:       r.template,
			PathParameters: r.template.ExtractSegments(segments),
		}, nil
	}

	return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, requestPath)
}

// Routes returns the registered templates per method
func (c *Catalog) Routes() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string][]string)
	for method, routes := range c.routes {
		for _, r := range routes {
			entry := r.template.String()
			if r.identifier != "" {
				entry += "#" + r.identifier
			}
			result[method] = append(result[method], entry)
		}
	}
	return result
}
