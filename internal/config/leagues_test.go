package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLeagues(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leagues.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadLeagueRegistry(t *testing.T) {
	path := writeLeagues(t, `
nba:
  name: NBA
  competitions:
    - key: regular
      name: Regular Season
    - key: playoffs
      name: Playoffs
epl:
  name: Premier League
  competitions:
    - key: league
      name: League
`)

	reg, err := LoadLeagueRegistry(path)
	require.NoError(t, err)

	assert.True(t, reg.Has("nba"))
	assert.False(t, reg.Has("nfl"))

	nba, ok := reg.Get("nba")
	require.True(t, ok)
	assert.Equal(t, "nba", nba.Key)
	assert.Equal(t, "NBA", nba.Name)
	require.Len(t, nba.Competitions, 2)
	assert.Equal(t, "playoffs", nba.Competitions[1].Key)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "epl", all[0].Key, "organizations are sorted by key")
}

func TestLoadLeagueRegistry_MissingFileIsEmpty(t *testing.T) {
	reg, err := LoadLeagueRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, reg.All())
}

func TestLoadLeagueRegistry_Invalid(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		_, err := LoadLeagueRegistry(writeLeagues(t, "nba: ["))
		assert.Error(t, err)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := LoadLeagueRegistry(writeLeagues(t, "nba:\n  competitions: []\n"))
		assert.Error(t, err)
	})
}
