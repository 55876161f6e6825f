package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/foxxorcat/wazero-feed/common/random"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlRoster = `people:
  - avatar: https://cdn.example/a.png
    studentId: "1001"
    studentName: Alice
  - avatar: https://cdn.example/b.png
    studentId: "1002"
  - avatar: https://cdn.example/c.png
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRoster_YAML(t *testing.T) {
	people, err := loadRoster(writeFile(t, "roster.yaml", yamlRoster))
	require.NoError(t, err)
	require.Len(t, people, 3)

	assert.Equal(t, "https://cdn.example/a.png", people[0].Avatar)
	require.NotNil(t, people[0].StudentName)
	assert.Equal(t, "Alice", *people[0].StudentName)
	assert.Nil(t, people[1].StudentName)
	assert.Nil(t, people[2].StudentID)
}

func TestLoadRoster_JSON(t *testing.T) {
	people, err := loadRoster(writeFile(t, "roster.json",
		`{"people": [{"avatar": "a.png", "studentId": "7"}, {"avatar": "b.png"}]}`))
	require.NoError(t, err)
	require.Len(t, people, 2)
	require.NotNil(t, people[0].StudentID)
	assert.Equal(t, "7", *people[0].StudentID)
}

func TestLoadRoster_Errors(t *testing.T) {
	_, err := loadRoster(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadRoster(writeFile(t, "empty.yaml", "people: []\n"))
	assert.Error(t, err)

	_, err = loadRoster(writeFile(t, "bad.yaml", "people: [\n"))
	assert.Error(t, err)
}

func TestSourceFor(t *testing.T) {
	src, err := sourceFor("")
	require.NoError(t, err)
	assert.Nil(t, src)

	seed := [random.SeedSize]byte{0xde, 0xad, 0xbe, 0xef}
	src, err = sourceFor(random.FormatSeed(seed))
	require.NoError(t, err)
	assert.Equal(t, seed, src.Seed())

	_, err = sourceFor("nope")
	assert.Error(t, err)
}

func TestRun_Replay(t *testing.T) {
	path := writeFile(t, "roster.yaml", yamlRoster)
	seed := strings.Repeat("0123456789abcdef", 4)
	t.Setenv("FEED_SEED", seed)
	t.Setenv("FEED_BATCH_SIZE", "2")
	t.Setenv("FEED_TICKS", "4")

	var first, second bytes.Buffer
	require.NoError(t, run(path, &first))
	require.NoError(t, run(path, &second))
	assert.Equal(t, first.String(), second.String())

	out := first.String()
	assert.Contains(t, out, "01234567 89abcdef 01234567 89abcdef\n01234567 89abcdef 01234567 89abcdef")
	assert.Contains(t, out, "preload 60 avatars")
	for _, line := range []string{"tick 1: ", "tick 4: "} {
		assert.Contains(t, out, line)
	}
	assert.Contains(t, out, "(+2 preload)")
}

func TestRun_InvalidBatchSize(t *testing.T) {
	path := writeFile(t, "roster.yaml", yamlRoster)
	t.Setenv("FEED_SEED", strings.Repeat("00", random.SeedSize))
	t.Setenv("FEED_BATCH_SIZE", "0")

	err := run(path, &bytes.Buffer{})
	assert.ErrorContains(t, err, "batch_size")
}
