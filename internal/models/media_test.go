package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemType(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  ItemType
		expectErr bool
	}{
		{"movie", "movie", ItemTypeMovie, false},
		{"episode", "episode", ItemTypeEpisode, false},
		{"empty", "", "", true},
		{"unknown", "song", "", true},
		{"case sensitive", "Movie", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseItemType(tt.input)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidItemType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLibrary_Validate(t *testing.T) {
	valid := func() *Library {
		return &Library{Name: "Movies", Path: "/media/movies", Type: LibraryTypeMovie}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		l := valid()
		l.Name = ""
		assert.ErrorIs(t, l.Validate(), ErrNameRequired)
	})

	t.Run("missing path", func(t *testing.T) {
		l := valid()
		l.Path = ""
		assert.ErrorIs(t, l.Validate(), ErrPathRequired)
	})

	t.Run("bad type", func(t *testing.T) {
		l := valid()
		l.Type = "music"
		assert.ErrorIs(t, l.Validate(), ErrInvalidLibraryType)
	})
}

func TestMovie_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m := &Movie{Title: "Heat", FilePath: "/media/movies/Heat (1995).mkv"}
		assert.NoError(t, m.Validate())
	})

	t.Run("missing title", func(t *testing.T) {
		m := &Movie{FilePath: "/media/movies/Heat (1995).mkv"}
		assert.ErrorIs(t, m.Validate(), ErrTitleRequired)
	})

	t.Run("missing file path", func(t *testing.T) {
		m := &Movie{Title: "Heat"}
		assert.ErrorIs(t, m.Validate(), ErrFilePathRequired)
	})
}

func TestEpisode_Validate(t *testing.T) {
	valid := func() *Episode {
		return &Episode{
			SeriesID: NewULID(),
			Season:   1,
			Episode:  2,
			FilePath: "/media/tv/Show/S01E02.mkv",
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("specials season zero is valid", func(t *testing.T) {
		e := valid()
		e.Season = 0
		assert.NoError(t, e.Validate())
	})

	t.Run("missing series", func(t *testing.T) {
		e := valid()
		e.SeriesID = ULID{}
		assert.ErrorIs(t, e.Validate(), ErrSeriesIDRequired)
	})

	t.Run("negative season", func(t *testing.T) {
		e := valid()
		e.Season = -1
		assert.ErrorIs(t, e.Validate(), ErrInvalidSeasonNumber)
	})

	t.Run("negative episode", func(t *testing.T) {
		e := valid()
		e.Episode = -1
		assert.ErrorIs(t, e.Validate(), ErrInvalidEpisodeNumber)
	})

	t.Run("missing file path", func(t *testing.T) {
		e := valid()
		e.FilePath = ""
		assert.ErrorIs(t, e.Validate(), ErrFilePathRequired)
	})
}

func TestWatchHistory_Validate(t *testing.T) {
	valid := func() *WatchHistory {
		return &WatchHistory{
			Username: "alice",
			ItemType: ItemTypeMovie,
			ItemID:   NewULID(),
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing username", func(t *testing.T) {
		w := valid()
		w.Username = ""
		assert.ErrorIs(t, w.Validate(), ErrUsernameRequired)
	})

	t.Run("bad item type", func(t *testing.T) {
		w := valid()
		w.ItemType = "clip"
		assert.ErrorIs(t, w.Validate(), ErrInvalidItemType)
	})

	t.Run("negative position", func(t *testing.T) {
		w := valid()
		w.PositionSeconds = -1
		assert.ErrorIs(t, w.Validate(), ErrInvalidPosition)
	})
}

func TestSubtitle_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := &Subtitle{ItemType: ItemTypeEpisode, ItemID: NewULID(), Lang: "en"}
		assert.NoError(t, s.Validate())
	})

	t.Run("missing item", func(t *testing.T) {
		s := &Subtitle{ItemType: ItemTypeMovie}
		assert.ErrorIs(t, s.Validate(), ErrItemIDRequired)
	})
}

func TestServerSetting_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := &ServerSetting{Key: SettingClaimToken, Value: "tok"}
		assert.NoError(t, s.Validate())
	})

	t.Run("missing key", func(t *testing.T) {
		s := &ServerSetting{Value: "tok"}
		assert.ErrorIs(t, s.Validate(), ErrKeyRequired)
	})
}
