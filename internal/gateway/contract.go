package gateway

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var contractSpec []byte

// Schema names in the embedded contract.
const (
	schemaCredentials  = "Credentials"
	schemaAuthCheck    = "AuthCheck"
	schemaPage         = "AttractionPage"
	schemaAttraction   = "Attraction"
	schemaBookmarkIDs  = "BookmarkIDs"
	schemaAddResult    = "AddBookmarkResult"
	schemaRemoveResult = "RemoveBookmarkResult"
)

// Contract validates decoded response documents against the remote API's OpenAPI schemas.
type Contract struct {
	doc *openapi3.T
}

var loadContract = sync.OnceValues(func() (*Contract, error) {
	return ParseContract(contractSpec)
})

// DefaultContract returns the contract embedded in the binary.
func DefaultContract() (*Contract, error) {
	return loadContract()
}

// ParseContract loads and validates an OpenAPI 3 document.
func ParseContract(data []byte) (*Contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load API contract: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid API contract: %w", err)
	}
	return &Contract{doc: doc}, nil
}

// Validate checks a JSON document decoded into generic values (map[string]any, []any, float64...)
// against the named component schema.
func (c *Contract) Validate(schema string, value any) error {
	ref, ok := c.doc.Components.Schemas[schema]
	if !ok || ref == nil || ref.Value == nil {
		return fmt.Errorf("unknown schema %q", schema)
	}
	return ref.Value.VisitJSON(value)
}
