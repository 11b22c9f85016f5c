package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePresets(t *testing.T) {
	data := []byte(`
presets:
  - name: tiny
    users: 3
    posts: 2
    comments_per_post: 1
    reply_ratio: 0.5
    vote_ratio: 1
    events: 1
    teams_per_event: 1
    projects: 1
    milestones: 2
  - name: pune
    users: 4
    colleges: [COEP, "VIT Pune"]
`)
	presets, err := ParsePresets(data)
	require.NoError(t, err)
	require.Len(t, presets, 2)

	tiny := presets["tiny"]
	assert.Equal(t, 3, tiny.Users)
	assert.Equal(t, 0.5, tiny.ReplyRatio)
	assert.Equal(t, DefaultColleges, tiny.Colleges)

	assert.Equal(t, []string{"COEP", "VIT Pune"}, presets["pune"].Colleges)
	assert.Equal(t, []string{"pune", "tiny"}, PresetNames(presets))
}

func TestParsePresetsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing name", "presets:\n  - users: 3\n", "without a name"},
		{"duplicate", "presets:\n  - {name: a, users: 2}\n  - {name: a, users: 2}\n", "duplicate"},
		{"too few users", "presets:\n  - {name: a, users: 1}\n", "at least 2"},
		{"negative count", "presets:\n  - {name: a, users: 2, posts: -1}\n", "negative"},
		{"ratio out of range", "presets:\n  - {name: a, users: 2, vote_ratio: 1.5}\n", "between 0 and 1"},
		{"not yaml", "presets: [", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePresets([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadPresets(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		presets, err := LoadPresets(filepath.Join(t.TempDir(), "nope.yml"))
		require.NoError(t, err)
		assert.Contains(t, presets, "small")
		assert.Contains(t, presets, "campus")
	})

	t.Run("file entries override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.yml")
		require.NoError(t, os.WriteFile(path, []byte("presets:\n  - {name: small, users: 5}\n"), 0o600))
		presets, err := LoadPresets(path)
		require.NoError(t, err)
		assert.Equal(t, 5, presets["small"].Users)
		assert.Contains(t, presets, "campus")
	})
}
