package handler

import _ "embed"

// OpenAPISpec documents every /api route served by NewRouter.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
