package crud

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/domain"
	"microblog/errs"
)

func TestPostCreate(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")

	post := &domain.Post{Text: "hello", AuthorID: alice.ID}
	require.NoError(t, s.Post.Create(post))

	assert.NotZero(t, post.ID)
	assert.Equal(t, alice.ID, post.AuthorID)
	assert.Equal(t, "alice", post.Author.Username)
	assert.False(t, post.CreatedAt.IsZero())
}

func TestPostCreateValidations(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")

	t.Run("empty text", func(t *testing.T) {
		err := s.Post.Create(&domain.Post{Text: "   ", AuthorID: alice.ID})
		require.Error(t, err)
		assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
	})

	t.Run("missing author", func(t *testing.T) {
		err := s.Post.Create(&domain.Post{Text: "hello"})
		require.Error(t, err)
		assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
	})

	t.Run("unknown group", func(t *testing.T) {
		groupID := 9999
		err := s.Post.Create(&domain.Post{Text: "hello", AuthorID: alice.ID, GroupID: &groupID})
		require.Error(t, err)
		assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
	})
}

func TestPostIndexPagination(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")
	for i := 1; i <= 25; i++ {
		post := &domain.Post{Text: fmt.Sprintf("post-%d", i), AuthorID: alice.ID}
		// Spread the timestamps so "newest first" is unambiguous.
		post.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, s.Post.Create(post))
	}

	page, err := s.Post.Index(1)
	require.NoError(t, err)
	assert.Len(t, page.Posts, domain.PageSize)
	assert.Equal(t, 25, page.Count)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, "post-25", page.Posts[0].Text)

	// Strictly non-increasing creation times within the page.
	for i := 1; i < len(page.Posts); i++ {
		assert.False(t, page.Posts[i].CreatedAt.After(page.Posts[i-1].CreatedAt))
	}

	last, err := s.Post.Index(3)
	require.NoError(t, err)
	assert.Len(t, last.Posts, 5)
	assert.Equal(t, "post-1", last.Posts[len(last.Posts)-1].Text)

	// An out-of-range page clamps to the nearest valid page.
	clamped, err := s.Post.Index(99)
	require.NoError(t, err)
	assert.Equal(t, 3, clamped.Number)
	assert.Equal(t, last.Posts[0].ID, clamped.Posts[0].ID)

	low, err := s.Post.Index(-4)
	require.NoError(t, err)
	assert.Equal(t, 1, low.Number)
}

func TestPostIndexEmpty(t *testing.T) {
	s := testServices(t)

	page, err := s.Post.Index(1)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.Pages)
}

func TestPostByGroup(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")
	group := createTestGroup(t, s, "Tech", "tech")

	inGroup := &domain.Post{Text: "in group", AuthorID: alice.ID, GroupID: &group.ID}
	require.NoError(t, s.Post.Create(inGroup))
	createTestPost(t, s, alice, "not in group")

	page, err := s.Post.ByGroup(group.ID, 1)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "in group", page.Posts[0].Text)
}

func TestPostByAuthor(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	createTestPost(t, s, alice, "by alice")
	createTestPost(t, s, bob, "by bob")

	page, err := s.Post.ByAuthor(alice.ID, 1)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "by alice", page.Posts[0].Text)

	count, err := s.Post.CountByAuthor(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostFeed(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	carol := createTestUser(t, s, "carol")

	createTestPost(t, s, alice, "own post")
	createTestPost(t, s, bob, "bob one")
	createTestPost(t, s, bob, "bob two")
	carolPost := createTestPost(t, s, carol, "carol one")

	// Following nobody yields an empty page, not an error.
	page, err := s.Post.Feed(alice.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)

	require.NoError(t, s.Follow.Follow(alice.ID, bob.ID))
	page, err = s.Post.Feed(alice.ID, 1)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)
	for _, p := range page.Posts {
		assert.Equal(t, bob.ID, p.AuthorID)
	}

	// Following a new author makes their existing posts appear.
	require.NoError(t, s.Follow.Follow(alice.ID, carol.ID))
	page, err = s.Post.Feed(alice.ID, 1)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 3)

	ids := make([]int, 0, len(page.Posts))
	for _, p := range page.Posts {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, carolPost.ID)
}

func TestPostUpdateKeepsAuthorAndPubDate(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	post := createTestPost(t, s, alice, "hello")
	created := post.CreatedAt

	// Even a tampered struct cannot move the post to another author or
	// rewrite its publication date.
	post.Text = "hello v2"
	post.AuthorID = bob.ID
	post.CreatedAt = created.Add(-24 * time.Hour)
	require.NoError(t, s.Post.Update(post))

	stored, err := s.Post.ByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello v2", stored.Text)
	assert.Equal(t, alice.ID, stored.AuthorID)
	assert.WithinDuration(t, created, stored.CreatedAt, time.Second)
}

func TestPostByIDNotFound(t *testing.T) {
	s := testServices(t)

	_, err := s.Post.ByID(12345)
	require.Error(t, err)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}
