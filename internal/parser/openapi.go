// Package parser imports OpenAPI 3 documents as virtual services.
package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"

	"github.com/prasenjit/servicevirt/internal/models"
)

const maxSchemaDepth = 5

// Parser handles OpenAPI 3 document parsing
type Parser struct{}

// NewParser creates a new OpenAPI parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseResult contains the imported service and its operations. Operations
// carry their mock responses.
type ParseResult struct {
	Service    *models.Service
	Operations []*models.Operation
}

// Parse imports an OpenAPI 3 document. Every documented response becomes a
// mock response; success responses are enabled, the rest disabled.
func (p *Parser) Parse(content string, basePath string) (*ParseResult, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromData([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	now := time.Now()
	svc := &models.Service{
		ID:          uuid.New().String(),
		Name:        doc.Info.Title,
		Type:        models.ServiceTypeREST,
		BasePath:    NormalizeBasePath(basePath),
		Description: doc.Info.Description,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return &ParseResult{
		Service:    svc,
		Operations: p.extractOperations(doc, svc.ID),
	}, nil
}

// extractOperations extracts all operations in path then method order
func (p *Parser) extractOperations(doc *openapi3.T, serviceID string) []*models.Operation {
	var operations []*models.Operation
	if doc.Paths == nil {
		return operations
	}

	for _, pathPattern := range doc.Paths.InMatchingOrder() {
		pathItem := doc.Paths.Value(pathPattern)
		if pathItem == nil {
			continue
		}

		methods := []struct {
			name string
			op   *openapi3.Operation
		}{
			{"GET", pathItem.Get},
			{"POST", pathItem.Post},
			{"PUT", pathItem.Put},
			{"DELETE", pathItem.Delete},
			{"PATCH", pathItem.Patch},
			{"HEAD", pathItem.Head},
			{"OPTIONS", pathItem.Options},
		}

		for _, m := range methods {
			if m.op == nil {
				continue
			}

			name := m.op.OperationID
			if name == "" {
				name = fmt.Sprintf("%s_%s", strings.ToLower(m.name), sanitizePath(pathPattern))
			}

			// Stable IDs let a re-import address the same operations
			opID := generateOperationID(serviceID, m.name, pathPattern)
			operation := &models.Operation{
				ID:               opID,
				ServiceID:        serviceID,
				Name:             name,
				Method:           m.name,
				URI:              pathPattern,
				Status:           models.StatusMocked,
				ResponseStrategy: models.StrategyRandom,
				MockResponses:    extractMockResponses(m.op, opID),
			}
			operations = append(operations, operation)
		}
	}

	sort.SliceStable(operations, func(i, j int) bool {
		return operations[i].URI < operations[j].URI
	})
	return operations
}

// extractMockResponses turns every documented status code, media type and
// named example into a mock response
func extractMockResponses(op *openapi3.Operation, operationID string) []models.MockResponse {
	if op.Responses == nil {
		return nil
	}

	codes := make([]int, 0)
	refs := make(map[int]*openapi3.ResponseRef)
	for key, ref := range op.Responses.Map() {
		code, err := strconv.Atoi(key)
		if err != nil || ref == nil || ref.Value == nil {
			continue
		}
		codes = append(codes, code)
		refs[code] = ref
	}
	sort.Ints(codes)

	var responses []models.MockResponse
	for _, code := range codes {
		response := refs[code].Value

		status := models.MockResponseDisabled
		if code >= 200 && code < 300 {
			status = models.MockResponseEnabled
		}

		headers := exampleHeaders(response)

		if len(response.Content) == 0 {
			responses = append(responses, models.MockResponse{
				ID:             uuid.New().String(),
				OperationID:    operationID,
				Name:           strconv.Itoa(code),
				Status:         status,
				HTTPStatusCode: code,
				Headers:        headers,
			})
			continue
		}

		mediaTypes := make([]string, 0, len(response.Content))
		for mediaType := range response.Content {
			mediaTypes = append(mediaTypes, mediaType)
		}
		sort.Strings(mediaTypes)

		for _, mediaType := range mediaTypes {
			withType := append(append([]models.HTTPHeader(nil), headers...),
				models.HTTPHeader{Name: "Content-Type", Value: mediaType})

			for _, ex := range examples(response.Content[mediaType]) {
				name := fmt.Sprintf("%d %s", code, mediaType)
				if ex.name != "" {
					name += " (" + ex.name + ")"
				}
				responses = append(responses, models.MockResponse{
					ID:             uuid.New().String(),
					OperationID:    operationID,
					Name:           name,
					Status:         status,
					Body:           ex.body,
					HTTPStatusCode: code,
					Headers:        withType,
				})
			}
		}
	}

	return responses
}

type example struct {
	name string
	body string
}

// examples returns the media type's examples: the inline example, each named
// example in name order, or one generated from the schema
func examples(content *openapi3.MediaType) []example {
	if content == nil {
		return []example{{}}
	}
	if content.Example != nil {
		return []example{{body: formatExample(content.Example)}}
	}

	if len(content.Examples) > 0 {
		names := make([]string, 0, len(content.Examples))
		for name := range content.Examples {
			names = append(names, name)
		}
		sort.Strings(names)

		var result []example
		for _, name := range names {
			ex := content.Examples[name]
			if ex == nil || ex.Value == nil || ex.Value.Value == nil {
				continue
			}
			result = append(result, example{name: name, body: formatExample(ex.Value.Value)})
		}
		if len(result) > 0 {
			return result
		}
	}

	if content.Schema != nil && content.Schema.Value != nil {
		return []example{{body: generateExampleFromSchema(content.Schema.Value)}}
	}
	return []example{{}}
}

func exampleHeaders(response *openapi3.Response) []models.HTTPHeader {
	names := make([]string, 0, len(response.Headers))
	for name, header := range response.Headers {
		if header != nil && header.Value != nil && header.Value.Example != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	headers := make([]models.HTTPHeader, 0, len(names))
	for _, name := range names {
		headers = append(headers, models.HTTPHeader{
			Name:  name,
			Value: fmt.Sprintf("%v", response.Headers[name].Value.Example),
		})
	}
	return headers
}

// formatExample converts an example value to a JSON string
func formatExample(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		if data, err := json.Marshal(val); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", val)
	}
}

// NormalizeBasePath returns basePath with a leading slash and no trailing slash
func NormalizeBasePath(basePath string) string {
	if basePath == "" {
		return ""
	}

	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	return strings.TrimSuffix(basePath, "/")
}

// sanitizePath converts a path to a valid identifier
func sanitizePath(pathPattern string) string {
	result := strings.ReplaceAll(pathPattern, "{", "")
	result = strings.ReplaceAll(result, "}", "")
	result = strings.ReplaceAll(result, "/", "_")
	result = strings.TrimPrefix(result, "_")
	result = strings.TrimSuffix(result, "_")
	return result
}

// generateOperationID generates a deterministic operation ID based on
// service, method and path
func generateOperationID(serviceID, method, path string) string {
	data := fmt.Sprintf("%s:%s:%s", serviceID, method, path)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// generateExampleFromSchema renders a JSON example from an OpenAPI schema
func generateExampleFromSchema(schema *openapi3.Schema) string {
	data, err := json.Marshal(exampleValue(schema, 0))
	if err != nil {
		return "null"
	}
	return string(data)
}

func exampleValue(schema *openapi3.Schema, depth int) interface{} {
	if schema == nil || depth > maxSchemaDepth {
		return nil
	}
	if schema.Example != nil {
		return schema.Example
	}
	if schema.Default != nil {
		return schema.Default
	}
	if len(schema.Enum) > 0 {
		return schema.Enum[0]
	}

	switch {
	case schema.Type.Is("object") || (schema.Type == nil && len(schema.Properties) > 0):
		obj := make(map[string]interface{}, len(schema.Properties))
		for name, prop := range schema.Properties {
			if prop != nil {
				obj[name] = exampleValue(prop.Value, depth+1)
			}
		}
		return obj
	case schema.Type.Is("array"):
		if schema.Items == nil {
			return []interface{}{}
		}
		return []interface{}{exampleValue(schema.Items.Value, depth+1)}
	case schema.Type.Is("string"):
		return "string"
	case schema.Type.Is("integer"):
		return 0
	case schema.Type.Is("number"):
		return 0.0
	case schema.Type.Is("boolean"):
		return false
	default:
		return nil
	}
}
