package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDict(t *testing.T, tokens []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict.txt")
	content := ""
	for _, tok := range tokens {
		content += tok + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadBuildsBlankTokensSpaceLayout(t *testing.T) {
	path := writeDict(t, []string{"a", "b", "c"})
	dict, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, dict.BlankIndex())
	assert.Equal(t, "", dict.Token(dict.BlankIndex()))
	assert.Equal(t, 5, dict.Size()) // blank + 3 tokens + space
	assert.Equal(t, 4, dict.SpaceIndex())
	assert.Equal(t, " ", dict.Token(dict.SpaceIndex()))

	assert.Equal(t, "a", dict.Token(1))
	assert.Equal(t, "b", dict.Token(2))
	assert.Equal(t, "c", dict.Token(3))
	assert.Equal(t, 1, dict.Index("a"))
	assert.Equal(t, -1, dict.Index("nonexistent"))
}

func TestLoadStripsBOMOnlyOnFirstLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.txt")
	content := "\xEF\xBB\xBFa\nb\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	dict, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "a", dict.Token(1))
	assert.Equal(t, "b", dict.Token(2))
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestFilterDropsUnknownRunes(t *testing.T) {
	path := writeDict(t, []string{"a", "b"})
	dict, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ab", dict.Filter("a!b?"))
}

func TestFilterNilDictionaryReturnsInputUnchanged(t *testing.T) {
	var dict *Dictionary
	assert.Equal(t, "hello", dict.Filter("hello"))
}
