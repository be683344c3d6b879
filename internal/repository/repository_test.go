package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"category-dashboard/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := NewDB(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, Initialize(context.Background(), db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, repo *UserRepository, name, email string) *model.UserProfile {
	t.Helper()

	user, err := repo.Create(context.Background(), model.NewUser{Name: name, Email: email, Password: "hash"})
	require.NoError(t, err)
	return user
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestInitializeIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	require.NoError(t, Initialize(context.Background(), db))
	require.True(t, db.Migrator().HasTable("users"))
	require.True(t, db.Migrator().HasTable("categories"))
}

func TestEnsureDirForSQLite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, ensureDirForSQLite("file:"+dir+"/nested/app.db?cache=shared"))
	require.DirExists(t, dir+"/nested")
	require.NoError(t, ensureDirForSQLite(":memory:"))
}

func TestNewDBCreatesFile(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/data/dashboard.db"
	db, err := NewDB(path, nil)
	require.NoError(t, err)
	require.NoError(t, Initialize(context.Background(), db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	require.FileExists(t, path)
}

func TestUserRepositoryLookups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	created, err := repo.Create(ctx, model.NewUser{Name: "Ana", Email: "ana@x.com", Password: "h1"})
	require.NoError(t, err)
	require.Equal(t, &model.UserProfile{ID: 1, Name: "Ana", Email: "ana@x.com"}, created)

	full, err := repo.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	require.NotNil(t, full)
	require.Equal(t, "h1", full.Password)
	require.False(t, full.CreatedAt.IsZero())

	profile, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, profile)

	missing, err := repo.FindByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	require.Nil(t, missing)

	missingProfile, err := repo.FindByID(ctx, 999)
	require.NoError(t, err)
	require.Nil(t, missingProfile)
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(db)
	createUser(t, repo, "Ana", "ana@x.com")

	_, err := repo.Create(ctx, model.NewUser{Name: "Other", Email: "ana@x.com", Password: "h2"})
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCategoryCreateDefaultsAndIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, NewUserRepository(db), "Ana", "ana@x.com")
	repo := NewCategoryRepository(db)

	first, err := repo.Create(ctx, model.NewCategory{Name: "Books", CreatedBy: owner.ID})
	require.NoError(t, err)
	require.Equal(t, 0, first.ItemCount)
	require.Equal(t, "", first.Image)

	second, err := repo.Create(ctx, model.NewCategory{Name: "Games", ItemCount: 2, Image: "/uploads/a.png", CreatedBy: owner.ID})
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	deleted, err := repo.Delete(ctx, second.ID, owner.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	third, err := repo.Create(ctx, model.NewCategory{Name: "Music", CreatedBy: owner.ID})
	require.NoError(t, err)
	require.Greater(t, third.ID, second.ID, "ids must not be reused after delete")
}

func TestCategoryCreateRequiresExistingOwner(t *testing.T) {
	t.Parallel()

	repo := NewCategoryRepository(newTestDB(t))
	_, err := repo.Create(context.Background(), model.NewCategory{Name: "Orphan", CreatedBy: 42})
	require.Error(t, err)
}

func TestCategoryOwnershipIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	ana := createUser(t, users, "Ana", "ana@x.com")
	bob := createUser(t, users, "Bob", "bob@x.com")
	repo := NewCategoryRepository(db)

	anaCat, err := repo.Create(ctx, model.NewCategory{Name: "Books", ItemCount: 3, CreatedBy: ana.ID})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.NewCategory{Name: "Tools", CreatedBy: bob.ID})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.NewCategory{Name: "Games", CreatedBy: bob.ID})
	require.NoError(t, err)

	anaList, err := repo.FindByUserID(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, anaList, 1)
	require.Equal(t, "Books", anaList[0].Name)

	bobList, err := repo.FindByUserID(ctx, bob.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(bobList))
	for _, c := range bobList {
		require.Equal(t, bob.ID, c.CreatedBy)
		names = append(names, c.Name)
	}
	require.ElementsMatch(t, []string{"Tools", "Games"}, names)

	updated, err := repo.Update(ctx, anaCat.ID, bob.ID, model.CategoryUpdate{Name: "Stolen"})
	require.NoError(t, err)
	require.Nil(t, updated)

	deleted, err := repo.Delete(ctx, anaCat.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	anaList, err = repo.FindByUserID(ctx, ana.ID)
	require.NoError(t, err)
	require.Equal(t, "Books", anaList[0].Name)
}

func TestCategoryListEmpty(t *testing.T) {
	t.Parallel()

	repo := NewCategoryRepository(newTestDB(t))
	list, err := repo.FindByUserID(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestCategoryPartialUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, NewUserRepository(db), "Ana", "ana@x.com")
	repo := NewCategoryRepository(db)

	created, err := repo.Create(ctx, model.NewCategory{Name: "Books", ItemCount: 3, Image: "/uploads/old.png", CreatedBy: owner.ID})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input model.CategoryUpdate
		want  model.Category
	}{
		{
			name:  "name only keeps count and image",
			input: model.CategoryUpdate{Name: "Books2"},
			want:  model.Category{Name: "Books2", ItemCount: 3, Image: "/uploads/old.png"},
		},
		{
			name:  "item count",
			input: model.CategoryUpdate{Name: "Books2", ItemCount: intPtr(9)},
			want:  model.Category{Name: "Books2", ItemCount: 9, Image: "/uploads/old.png"},
		},
		{
			name:  "item count to zero",
			input: model.CategoryUpdate{Name: "Books2", ItemCount: intPtr(0)},
			want:  model.Category{Name: "Books2", ItemCount: 0, Image: "/uploads/old.png"},
		},
		{
			name:  "image",
			input: model.CategoryUpdate{Name: "Books3", Image: strPtr("/uploads/new.png")},
			want:  model.Category{Name: "Books3", ItemCount: 0, Image: "/uploads/new.png"},
		},
	}

	for _, tc := range tests {
		got, err := repo.Update(ctx, created.ID, owner.ID, tc.input)
		require.NoError(t, err, tc.name)
		require.NotNil(t, got, tc.name)
		require.Equal(t, created.ID, got.ID, tc.name)
		require.Equal(t, tc.want.Name, got.Name, tc.name)
		require.Equal(t, tc.want.ItemCount, got.ItemCount, tc.name)
		require.Equal(t, tc.want.Image, got.Image, tc.name)
	}
}

func TestCategoryUpdateMissing(t *testing.T) {
	t.Parallel()

	repo := NewCategoryRepository(newTestDB(t))
	got, err := repo.Update(context.Background(), 404, 1, model.CategoryUpdate{Name: "Nope"})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCategoryDeleteTwice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, NewUserRepository(db), "Ana", "ana@x.com")
	repo := NewCategoryRepository(db)

	created, err := repo.Create(ctx, model.NewCategory{Name: "Books", CreatedBy: owner.ID})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, created.ID, owner.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = repo.Delete(ctx, created.ID, owner.ID)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestCategoryImagePaths(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, NewUserRepository(db), "Ana", "ana@x.com")
	repo := NewCategoryRepository(db)

	for _, c := range []model.NewCategory{
		{Name: "A", Image: "/uploads/a.png", CreatedBy: owner.ID},
		{Name: "B", CreatedBy: owner.ID},
		{Name: "C", Image: "/uploads/c.gif", CreatedBy: owner.ID},
	} {
		_, err := repo.Create(ctx, c)
		require.NoError(t, err)
	}

	paths, err := repo.ImagePaths(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"/uploads/a.png", "/uploads/c.gif"}, paths)
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	categories := NewCategoryRepository(db)

	user, err := users.Create(ctx, model.NewUser{Name: "Ana", Email: "ana@x.com", Password: "h1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, user.ID)

	created, err := categories.Create(ctx, model.NewCategory{Name: "Books", ItemCount: 3, Image: "", CreatedBy: 1})
	require.NoError(t, err)
	require.EqualValues(t, 1, created.ID)
	require.Equal(t, "Books", created.Name)
	require.Equal(t, 3, created.ItemCount)
	require.Equal(t, "", created.Image)

	list, err := categories.FindByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.EqualValues(t, 1, list[0].ID)
	require.Equal(t, "Books", list[0].Name)
	require.Equal(t, 3, list[0].ItemCount)

	updated, err := categories.Update(ctx, 1, 1, model.CategoryUpdate{Name: "Books2"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, "Books2", updated.Name)
	require.Equal(t, 3, updated.ItemCount)
	require.Equal(t, "", updated.Image)

	deleted, err := categories.Delete(ctx, 1, 2)
	require.NoError(t, err)
	require.False(t, deleted)

	deleted, err = categories.Delete(ctx, 1, 1)
	require.NoError(t, err)
	require.True(t, deleted)

	list, err = categories.FindByUserID(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, list)
}
