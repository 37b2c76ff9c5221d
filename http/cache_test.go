package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"microblog/crud"
)

func newCachedTestServer(t *testing.T, ttl time.Duration) (*Server, *miniredis.Miniredis, *crud.Services) {
	t.Helper()
	services := newTestServices(t, t.TempDir())
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	srv, err := NewServer(false, "test-csrf-key", t.TempDir(), zap.NewNop(), rdb, ttl, services)
	require.NoError(t, err)
	return srv, mr, services
}

func TestIndexCacheServesStalePage(t *testing.T) {
	ttl := 20 * time.Second
	srv, mr, services := newCachedTestServer(t, ttl)
	alice := createUser(t, services, "alice")
	createPost(t, services, alice, "first post")

	w := get(srv, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first post")

	// A write within the TTL stays invisible on the cached index.
	createPost(t, services, alice, "second post")
	w = get(srv, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "second post")

	// Once the entry expires the index renders fresh.
	mr.FastForward(ttl + time.Second)
	w = get(srv, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "second post")
}

func TestIndexCacheKeyedByQuery(t *testing.T) {
	srv, _, services := newCachedTestServer(t, 20*time.Second)
	alice := createUser(t, services, "alice")
	for i := 0; i < 15; i++ {
		createPost(t, services, alice, fmt.Sprintf("post-%d", i))
	}

	// Different pages of the index are cached under different keys.
	first := get(srv, "/")
	second := get(srv, "/?page=2")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.NotEqual(t, first.Body.String(), second.Body.String())
}

func TestDetailPagesAreNotCached(t *testing.T) {
	srv, _, services := newCachedTestServer(t, 20*time.Second)
	alice := createUser(t, services, "alice")
	post := createPost(t, services, alice, "hello")

	path := fmt.Sprintf("/alice/%d/", post.ID)
	w := get(srv, path)
	assert.Equal(t, http.StatusOK, w.Code)

	// An edit is visible right away on the detail page.
	stored, err := services.Post.ByID(post.ID)
	require.NoError(t, err)
	stored.Text = "hello v2"
	require.NoError(t, services.Post.Update(stored))

	w = get(srv, path)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hello v2")
}
