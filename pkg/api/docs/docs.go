// Package docs serves the OpenAPI description of the HTTP API and the
// Swagger UI that renders it.
package docs

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SpecPath is where the OpenAPI document is served.
const SpecPath = "/openapi.yaml"

//go:embed openapi.yaml
var spec []byte

// Spec returns the embedded OpenAPI document.
func Spec() []byte { return spec }

// SpecHandler serves the OpenAPI document.
func SpecHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(spec)
	})
}

// UIHandler serves the Swagger UI pointed at SpecPath.
func UIHandler() http.Handler {
	return httpSwagger.Handler(httpSwagger.URL(SpecPath))
}
