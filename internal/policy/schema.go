package policy

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/kaptinlin/jsonschema"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

var (
	//go:embed policy.schema.json
	policySchemaJSON []byte

	//go:embed synonyms.schema.json
	synonymsSchemaJSON []byte
)

var (
	policySchema   = sync.OnceValues(func() (*jsonschema.Schema, error) { return compileSchema(policySchemaJSON) })
	synonymsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) { return compileSchema(synonymsSchemaJSON) })
)

func compileSchema(data []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(data)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validateDocument checks a YAML document against a JSON schema by
// round-tripping it through its generic JSON form.
func validateDocument(load func() (*jsonschema.Schema, error), data []byte) error {
	schema, err := load()
	if err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse yaml: %v", domain.ErrInvalidPolicy, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: empty document", domain.ErrInvalidPolicy)
	}
	doc, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: encode document: %v", domain.ErrInvalidPolicy, err)
	}

	result := schema.ValidateJSON(doc)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("%w: schema validation failed: %v", domain.ErrInvalidPolicy, result.Errors)
}
