package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/idgen"
	"github.com/weiawesome/wes-io-social/internal/repository"
	"github.com/weiawesome/wes-io-social/internal/testutil"
)

type esRequest struct {
	Method string
	Path   string
	Body   string
}

func newFakeES(t *testing.T, status int, respond string) (*elasticsearch.Client, *[]esRequest) {
	var mu sync.Mutex
	var reqs []esRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, esRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respond)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, &reqs
}

func TestESUserIndexIndex(t *testing.T) {
	client, reqs := newFakeES(t, http.StatusCreated, `{"result":"created"}`)
	idx := NewESUserIndex(client, "users")

	err := idx.Index(context.Background(), &domain.User{ID: "u1", Name: "Ann", Email: "a@x.io", PasswordHash: "secret"})
	require.NoError(t, err)

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/users/_doc/u1", req.Path)
	assert.Contains(t, req.Body, `"name":"Ann"`)
	assert.NotContains(t, req.Body, "secret")
}

func TestESUserIndexDeleteMissingIsOK(t *testing.T) {
	client, reqs := newFakeES(t, http.StatusNotFound, `{"result":"not_found"}`)
	idx := NewESUserIndex(client, "users")

	require.NoError(t, idx.Delete(context.Background(), "u1"))
	require.Len(t, *reqs, 1)
	assert.Equal(t, http.MethodDelete, (*reqs)[0].Method)
}

func TestESUserIndexSearch(t *testing.T) {
	client, reqs := newFakeES(t, http.StatusOK,
		`{"hits":{"total":{"value":2},"hits":[{"_source":{"id":"u2"}},{"_source":{"id":"u1"}},{"_source":{}}]}}`)
	idx := NewESUserIndex(client, "users")

	ids, err := idx.Search(context.Background(), "ann", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u1"}, ids)

	require.Len(t, *reqs, 1)
	assert.True(t, strings.HasSuffix((*reqs)[0].Path, "/users/_search"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte((*reqs)[0].Body), &body))
	assert.EqualValues(t, 5, body["size"])
	assert.Contains(t, body["query"], "multi_match")
}

func TestESUserIndexSearchError(t *testing.T) {
	client, _ := newFakeES(t, http.StatusInternalServerError, `{"error":"boom"}`)
	idx := NewESUserIndex(client, "users")

	_, err := idx.Search(context.Background(), "ann", 5)
	assert.Error(t, err)
}

func TestDBUserIndexSearch(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewGormUserRepository(db, idgen.MustNew(idgen.UUID))
	ctx := context.Background()

	ann := &domain.User{Name: "Ann", Email: "ann@x.io", PasswordHash: "h"}
	require.NoError(t, users.Create(ctx, ann))
	require.NoError(t, users.Create(ctx, &domain.User{Name: "Bob", Email: "bob@x.io", PasswordHash: "h"}))

	idx := NewDBUserIndex(users)
	require.NoError(t, idx.Index(ctx, ann))
	require.NoError(t, idx.Delete(ctx, ann.ID))

	ids, err := idx.Search(ctx, "ann", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{ann.ID}, ids)
}
