package api

import (
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.json
var rawSpec []byte

// RawSpec returns the OpenAPI document as served on /api/openapi.json.
func RawSpec() []byte {
	return rawSpec
}

// GetSwagger parses and validates the embedded OpenAPI document. Each call returns
// a fresh copy that the caller may modify.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("error loading OpenAPI document: %w", err)
	}
	if err = doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return doc, nil
}
