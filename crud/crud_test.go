package crud

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"microblog/domain"
)

// testDB opens an in-memory sqlite database private to the test and runs
// the migrations on it. The shared cache keeps the database alive across
// the pooled connections gorm opens.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		domain.User{},
		domain.Group{},
		domain.Post{},
		domain.Comment{},
		domain.Follow{},
	))
	return db
}

// testServices builds the full service container on a test database.
func testServices(t *testing.T) *Services {
	t.Helper()
	services, err := NewServices(
		testDB(t),
		WithUser("test-pepper", "test-hmac-key"),
		WithGroup(),
		WithPost(),
		WithComment(),
		WithFollow(),
		WithImage(t.TempDir()),
	)
	require.NoError(t, err)
	return services
}

func createTestUser(t *testing.T, s *Services, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
	require.NoError(t, s.User.Create(user))
	return user
}

func createTestPost(t *testing.T, s *Services, author *domain.User, text string) *domain.Post {
	t.Helper()
	post := &domain.Post{
		Text:     text,
		AuthorID: author.ID,
	}
	require.NoError(t, s.Post.Create(post))
	return post
}

func createTestGroup(t *testing.T, s *Services, title, slug string) *domain.Group {
	t.Helper()
	group := &domain.Group{
		Title: title,
		Slug:  slug,
	}
	require.NoError(t, s.Group.Create(group))
	return group
}
