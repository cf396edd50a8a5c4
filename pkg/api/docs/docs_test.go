package docs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSpecListsRoutes(t *testing.T) {
	var doc struct {
		OpenAPI string                 `yaml:"openapi"`
		Paths   map[string]interface{} `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(Spec(), &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	for _, p := range []string{
		"/v1/scopes/{scope}/messages",
		"/v1/messages/{id}",
		"/v1/messages/{id}/grants",
		"/v1/profiles/{id}/access-requests",
		"/admin/jobs/sweep",
	} {
		assert.Contains(t, doc.Paths, p)
	}
}

func TestSpecHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	SpecHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, SpecPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Equal(t, Spec(), rec.Body.Bytes())
}
