package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/domain"
)

func followCount(t *testing.T, s *Services) int {
	t.Helper()
	var count int64
	require.NoError(t, s.db.Model(&domain.Follow{}).Count(&count).Error)
	return int(count)
}

func TestFollowCreatesSingleEdge(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	require.NoError(t, s.Follow.Follow(alice.ID, bob.ID))
	assert.Equal(t, 1, followCount(t, s))

	following, err := s.Follow.Following(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	// The edge is directed: bob does not follow alice.
	reverse, err := s.Follow.Following(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, reverse)
}

func TestFollowIsIdempotent(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	require.NoError(t, s.Follow.Follow(alice.ID, bob.ID))
	require.NoError(t, s.Follow.Follow(alice.ID, bob.ID))
	require.NoError(t, s.Follow.Follow(alice.ID, bob.ID))
	assert.Equal(t, 1, followCount(t, s))
}

func TestFollowSelfIsSuppressed(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")

	require.NoError(t, s.Follow.Follow(alice.ID, alice.ID))
	assert.Equal(t, 0, followCount(t, s))
}

func TestUnfollow(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	require.NoError(t, s.Follow.Follow(alice.ID, bob.ID))
	require.NoError(t, s.Follow.Unfollow(alice.ID, bob.ID))
	assert.Equal(t, 0, followCount(t, s))

	// Unfollowing without an edge still succeeds and changes nothing.
	require.NoError(t, s.Follow.Unfollow(alice.ID, bob.ID))
	assert.Equal(t, 0, followCount(t, s))
}

func TestFollowAuthorIDs(t *testing.T) {
	s := testServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	carol := createTestUser(t, s, "carol")

	require.NoError(t, s.Follow.Follow(alice.ID, bob.ID))
	require.NoError(t, s.Follow.Follow(alice.ID, carol.ID))

	ids, err := s.Follow.AuthorIDs(alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{bob.ID, carol.ID}, ids)

	none, err := s.Follow.AuthorIDs(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
