package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteIndices(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, nil)
	require.NoError(t, c.DeleteIndices(context.Background(), "*--2024.05.01"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/*--2024.05.01", gotPath)
}

func TestDeleteIndicesNotFoundIsFine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"index_not_found_exception"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL, time.Second, nil).DeleteIndices(context.Background(), "taxon--*"))
}

func TestDeleteIndicesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "wildcard expressions not allowed", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second, nil).DeleteIndices(context.Background(), "*")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "wildcard")
}

func TestDeleteIndicesRejectsEmptyPattern(t *testing.T) {
	assert.Error(t, NewClient("http://localhost:1", time.Second, nil).DeleteIndices(context.Background(), " "))
}
