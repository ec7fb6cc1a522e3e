package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdocs/orderdocs/internal/models"
)

// metafieldStore emulates the platform's upsert semantics: one value per
// (owner, namespace, key), overwritten on rewrite.
type metafieldStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMetafieldServer(t *testing.T) (*httptest.Server, *metafieldStore) {
	t.Helper()
	store := &metafieldStore{values: make(map[string]string)}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, variables := decodeGraphQL(t, r)
		field := variables["metafields"].([]any)[0].(map[string]any)

		slot := fmt.Sprintf("%s|%s|%s", field["ownerId"], field["namespace"], field["key"])
		value := field["value"].(string)

		store.mu.Lock()
		store.values[slot] = value
		store.mu.Unlock()

		fmt.Fprintf(w, `{"data": {"metafieldsSet": {
			"metafields": [{"id": "gid://shopify/Metafield/1", "key": %q, "value": %q}],
			"userErrors": []
		}}}`, field["key"], value)
	}))

	return server, store
}

func TestSetMetafield_Upsert(t *testing.T) {
	server, store := newMetafieldServer(t)
	defer server.Close()

	client := testClient(t, server.URL)
	order := models.OwnerRecord{Type: models.OwnerOrder, ID: "123"}

	require.NoError(t, client.SetMetafield(context.Background(), order, "custom", "lpo_file", "https://cdn.example.com/v1.pdf"))
	require.NoError(t, client.SetMetafield(context.Background(), order, "custom", "lpo_file", "https://cdn.example.com/v2.pdf"))

	// Writing the same slot twice leaves exactly one value, the latest.
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.values, 1)
	assert.Equal(t, "https://cdn.example.com/v2.pdf", store.values["gid://shopify/Order/123|custom|lpo_file"])
}

func TestSetMetafield_OwnerGID(t *testing.T) {
	server, store := newMetafieldServer(t)
	defer server.Close()

	client := testClient(t, server.URL)
	customer := models.OwnerRecord{Type: models.OwnerCustomer, ID: "456"}

	require.NoError(t, client.SetMetafield(context.Background(), customer, "custom", "lpo_file", "https://cdn.example.com/a.pdf"))

	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.values["gid://shopify/Customer/456|custom|lpo_file"]
	assert.True(t, ok, "customer gid not used as owner id")
}

func TestSetMetafield_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"metafieldsSet": {
			"metafields": [],
			"userErrors": [{"field": ["metafields", "0", "ownerId"], "message": "Owner does not exist"}]
		}}}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	order := models.OwnerRecord{Type: models.OwnerOrder, ID: "999"}

	err := client.SetMetafield(context.Background(), order, "custom", "lpo_file", "https://cdn.example.com/a.pdf")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrRejected))
	assert.Contains(t, err.Error(), "Owner does not exist")
}

func TestSetMetafield_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {}}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	order := models.OwnerRecord{Type: models.OwnerOrder, ID: "123"}

	err := client.SetMetafield(context.Background(), order, "custom", "lpo_file", "https://cdn.example.com/a.pdf")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrMalformedResponse))
}
