package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cat := Default()
	require.NoError(t, cat.validate())
	assert.NotEmpty(t, cat.Mains)
	assert.NotEmpty(t, cat.Supports)
}

func TestIsCounter(t *testing.T) {
	cat := Default()
	assert.True(t, cat.IsCounter(1, 3))
	assert.True(t, cat.IsCounter(1, 7))
	assert.False(t, cat.IsCounter(3, 1), "counters are directional")
	assert.False(t, cat.IsCounter(1, 4))
}

func writeDeck(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ValidDeck(t *testing.T) {
	path := writeDeck(t, `{
		"mainCards": [
			{"id": 1, "name": "One", "damage": 10, "hp": 5, "type": "main"},
			{"id": 2, "name": "Two", "damage": 20, "hp": 5, "type": "main"}
		],
		"supportCards": [
			{"id": 101, "name": "Helper", "type": "support", "bonusDamage": 1.5, "bonusHeal": 2}
		],
		"counters": {"1": [2]}
	}`)

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cat.Mains, 2)
	assert.Len(t, cat.Supports, 1)
	assert.True(t, cat.IsCounter(1, 2))
}

func TestLoad_Rejections(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{
			name: "duplicate id across categories",
			body: `{"mainCards":[{"id":1,"name":"A","type":"main"}],
				"supportCards":[{"id":1,"name":"B","type":"support"}]}`,
		},
		{
			name: "wrong category tag",
			body: `{"mainCards":[{"id":1,"name":"A","type":"support"}]}`,
		},
		{
			name: "empty main pool",
			body: `{"mainCards":[],"supportCards":[]}`,
		},
		{
			name: "counter key not an id",
			body: `{"mainCards":[{"id":1,"name":"A","type":"main"}],"counters":{"x":[2]}}`,
		},
		{
			name: "not json",
			body: `{`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeDeck(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
