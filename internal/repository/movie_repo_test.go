package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/henosis-us/lantern/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Library{},
		&models.Movie{},
		&models.Series{},
		&models.Episode{},
		&models.Subtitle{},
		&models.SubtitlePreference{},
		&models.WatchHistory{},
		&models.ServerSetting{},
	)
	require.NoError(t, err)

	return db
}

// createTestLibrary creates a Library for use as a foreign key in catalog tests.
func createTestLibrary(t *testing.T, db *gorm.DB, name string, typ models.LibraryType) *models.Library {
	t.Helper()
	library := &models.Library{Name: name, Path: "/media/" + name, Type: typ}
	err := db.Create(library).Error
	require.NoError(t, err)
	return library
}

func TestMovieRepo_CreateAndGet(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewMovieRepository(db)
	ctx := context.Background()

	library := createTestLibrary(t, db, "movies", models.LibraryTypeMovie)

	movie := &models.Movie{
		LibraryID:       library.ID,
		Title:           "Heat",
		FilePath:        "/media/movies/Heat (1995).mkv",
		DurationSeconds: 10200,
		VideoCodec:      "h264",
		AudioCodec:      "aac",
		AudioChannels:   2,
		DirectPlay:      true,
	}

	err := repo.Create(ctx, movie)
	require.NoError(t, err)
	assert.False(t, movie.ID.IsZero())

	got, err := repo.GetByID(ctx, movie.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Heat", got.Title)
	assert.Equal(t, "h264", got.VideoCodec)
	assert.True(t, got.DirectPlay)

	byPath, err := repo.GetByFilePath(ctx, movie.FilePath)
	require.NoError(t, err)
	require.NotNil(t, byPath)
	assert.Equal(t, movie.ID, byPath.ID)
}

func TestMovieRepo_GetByID_NotFound(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewMovieRepository(db)

	got, err := repo.GetByID(context.Background(), models.NewULID())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMovieRepo_GetAll_ExcludesExtras(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewMovieRepository(db)
	ctx := context.Background()

	library := createTestLibrary(t, db, "movies", models.LibraryTypeMovie)

	main := &models.Movie{LibraryID: library.ID, Title: "Heat", FilePath: "/m/Heat.mkv"}
	require.NoError(t, repo.Create(ctx, main))

	extra := &models.Movie{
		LibraryID: library.ID,
		Title:     "Heat - Behind the Scenes",
		FilePath:  "/m/Heat-bts.mkv",
		ParentID:  &main.ID,
	}
	require.NoError(t, repo.Create(ctx, extra))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Heat", all[0].Title)

	extras, err := repo.GetExtras(ctx, main.ID)
	require.NoError(t, err)
	require.Len(t, extras, 1)
	assert.Equal(t, "Heat - Behind the Scenes", extras[0].Title)
}

func TestMovieRepo_DeleteMissing(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewMovieRepository(db)
	ctx := context.Background()

	library := createTestLibrary(t, db, "movies", models.LibraryTypeMovie)

	keep := &models.Movie{LibraryID: library.ID, Title: "Keep", FilePath: "/m/keep.mkv"}
	gone := &models.Movie{LibraryID: library.ID, Title: "Gone", FilePath: "/m/gone.mkv"}
	require.NoError(t, repo.Create(ctx, keep))
	require.NoError(t, repo.Create(ctx, gone))

	removed, err := repo.DeleteMissing(ctx, library.ID, []string{"/m/keep.mkv"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	got, err := repo.GetByFilePath(ctx, "/m/gone.mkv")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMovieRepo_Update(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewMovieRepository(db)
	ctx := context.Background()

	library := createTestLibrary(t, db, "movies", models.LibraryTypeMovie)
	movie := &models.Movie{LibraryID: library.ID, Title: "Heat", FilePath: "/m/Heat.mkv"}
	require.NoError(t, repo.Create(ctx, movie))

	movie.TMDBID = 949
	movie.Overview = "A crew of career criminals."
	require.NoError(t, repo.Update(ctx, movie))

	got, err := repo.GetByID(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(949), got.TMDBID)
	assert.NotEmpty(t, got.Overview)
}

func TestLibraryRepo_CRUD(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewLibraryRepository(db)
	ctx := context.Background()

	library := &models.Library{Name: "TV", Path: "/media/tv", Type: models.LibraryTypeTV}
	require.NoError(t, repo.Create(ctx, library))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	library.Path = "/mnt/tv"
	require.NoError(t, repo.Update(ctx, library))

	got, err := repo.GetByID(ctx, library.ID)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/tv", got.Path)

	require.NoError(t, repo.Delete(ctx, library.ID))
	got, err = repo.GetByID(ctx, library.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
