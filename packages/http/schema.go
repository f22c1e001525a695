package http

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaResponseFactory returns a factory whose responses only succeed when the
// body validates against the given JSON schema.
func SchemaResponseFactory(schema []byte) (ResponseFactory, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("invalid response schema: %w", err)
	}

	return func(raw *RawResponse) Response {
		resp := newJSONResponse(raw)
		if resp.err != nil {
			return resp
		}
		resp.err = validateBody(compiled, raw.Body)
		return resp
	}, nil
}

// SchemaResponseFactoryFromFile loads the schema from path
func SchemaResponseFactoryFromFile(path string) (ResponseFactory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return SchemaResponseFactory(data)
}

func validateBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(problems, "; "))
}
