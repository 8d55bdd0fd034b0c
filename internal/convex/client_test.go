package convex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agency-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardLead(t *testing.T) {
	var got mutationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/mutation", r.URL.Path)
		assert.Equal(t, "Convex key-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success","value":"k57abc"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123", "contacts:create")
	err := c.ForwardLead(context.Background(), &models.ContactSubmission{
		ID: 9, Name: "Ada", Email: "ada@example.com", Status: models.LeadNew, Source: "contact-form",
	})
	require.NoError(t, err)

	assert.Equal(t, "contacts:create", got.Path)
	assert.Equal(t, "json", got.Format)
	args := got.Args.(map[string]any)
	assert.Equal(t, "ada@example.com", args["email"])
	assert.Equal(t, "new", args["status"])
	assert.Equal(t, float64(9), args["externalId"])
}

func TestMutation_Errors(t *testing.T) {
	t.Run("function error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":"error","errorMessage":"Validator error: missing email"}`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "", "contacts:create").Mutation(context.Background(), "contacts:create", map[string]any{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing email")
	})

	t.Run("non json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "", "x").Mutation(context.Background(), "x", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}
