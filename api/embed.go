// Package api embeds the HTTP and event contracts of the production service
package api

import _ "embed"

// OpenAPISpec is the HTTP contract served under /api/v1
//
//go:embed openapi.yaml
var OpenAPISpec []byte

// AsyncAPISpec describes the CloudEvents published and consumed on Kafka
//
//go:embed asyncapi.yaml
var AsyncAPISpec []byte
