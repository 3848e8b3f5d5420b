// Package api holds the OpenAPI description of the dispatch HTTP surface.
package api

import _ "embed"

// Spec is the OpenAPI 3 document incoming requests are validated against.
//
//go:embed openapi.yaml
var Spec []byte
