package builtin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/artfinder/internal/domain"
)

func TestNewRegistry_RegistersBuiltins(t *testing.T) {
	r, err := NewRegistry(Options{})
	require.NoError(t, err)
	assert.Equal(t, Codes(), r.Codes())

	a, err := r.Resolve("CMA")
	require.NoError(t, err)
	assert.Equal(t, "Cleveland Museum of Art", a.Name())
}

func TestNewRegistry_BaseURLOverride(t *testing.T) {
	hit := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit <- r.URL.Path
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	r, err := NewRegistry(Options{
		Client:   srv.Client(),
		BaseURLs: map[string]string{"AIC": srv.URL + "/custom"},
	})
	require.NoError(t, err)

	a, err := r.Resolve("aic")
	require.NoError(t, err)
	f, err := domain.NewSearchFilters(domain.SearchFilters{Museum: "aic", Limit: 5})
	require.NoError(t, err)

	res, err := a.Fetch(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Fetched)
	assert.Equal(t, "/custom", <-hit)
}
