package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/foxxorcat/wazero-feed/common/random"
	"github.com/foxxorcat/wazero-feed/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const threePeople = `{
	"people": [
		{"avatar": "a.png", "studentId": "1", "studentName": "Alice"},
		{"avatar": "b.png", "studentId": "2"},
		{"avatar": "c.png"}
	],
	"batch_size": 1
}`

func newManager(t *testing.T) (*Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	var seed [random.SeedSize]byte
	copy(seed[:], "manager-test-seed-0123456789abcd")
	return NewManager(zap.New(core), random.NewSource(seed)), logs
}

// rawTick 按外部字段名解码，验证 JSON 结构。
type rawTick struct {
	Current []struct {
		Avatar      string  `json:"avatar"`
		StudentID   *string `json:"studentId"`
		StudentName *string `json:"studentName"`
	} `json:"current"`
	PreloadImages []string `json:"preloadImages"`
}

func advance(t *testing.T, m *Manager, h uint32) rawTick {
	t.Helper()
	b, err := m.Advance(h)
	require.NoError(t, err)
	defer m.Release(b)

	var tick rawTick
	require.NoError(t, json.Unmarshal(b, &tick))
	return tick
}

func TestManager_CreateAndPreloadAll(t *testing.T) {
	m, _ := newManager(t)

	h, err := m.Create([]byte(threePeople))
	require.NoError(t, err)
	assert.NotZero(t, h)
	assert.Equal(t, 1, m.Len())

	b, err := m.PreloadAll(h)
	require.NoError(t, err)
	var avatars []string
	require.NoError(t, json.Unmarshal(b, &avatars))
	m.Release(b)

	require.Len(t, avatars, 30)
	for _, a := range avatars {
		assert.Contains(t, []string{"a.png", "b.png", "c.png"}, a)
	}

	src, err := m.Get(h)
	require.NoError(t, err)
	for i, p := range src.Lookahead() {
		assert.Equal(t, p.Avatar, avatars[i], "lookahead order")
	}
}

func TestManager_Advance(t *testing.T) {
	m, _ := newManager(t)
	h, err := m.Create([]byte(threePeople))
	require.NoError(t, err)

	src, err := m.Get(h)
	require.NoError(t, err)
	next := src.Lookahead()[0]

	tick := advance(t, m, h)
	require.Len(t, tick.Current, 1)
	require.Len(t, tick.PreloadImages, 1)
	assert.Equal(t, next.Avatar, tick.Current[0].Avatar)
	assert.Equal(t, src.Lookahead()[29].Avatar, tick.PreloadImages[0])

	for i := 0; i < 1000; i++ {
		tick := advance(t, m, h)
		require.Len(t, tick.Current, 1)
		require.Len(t, src.Lookahead(), 30)

		switch c := tick.Current[0]; c.Avatar {
		case "a.png":
			require.NotNil(t, c.StudentName)
			assert.Equal(t, "Alice", *c.StudentName)
		case "c.png":
			assert.Nil(t, c.StudentID)
			assert.Nil(t, c.StudentName)
		}
	}
}

func TestManager_AdvanceWireFormat(t *testing.T) {
	m, _ := newManager(t)
	h, err := m.Create([]byte(`{"people":[{"avatar":"x.png?a=1&b=2"}],"batch_size":1}`))
	require.NoError(t, err)

	b, err := m.Advance(h)
	require.NoError(t, err)
	defer m.Release(b)

	assert.JSONEq(t,
		`{"current":[{"avatar":"x.png?a=1&b=2","studentId":null,"studentName":null}],"preloadImages":["x.png?a=1&b=2"]}`,
		string(b))
	assert.False(t, strings.HasSuffix(string(b), "\n"))
	assert.NotContains(t, string(b), `\u0026`)
}

func TestManager_CreateRejects(t *testing.T) {
	m, logs := newManager(t)

	for _, cfg := range []string{
		``,
		`not json`,
		`{"people": [], "batch_size": 3}`,
		`{"batch_size": 3}`,
		`{"people": [{"avatar": "a"}], "batch_size": 0}`,
		`{"people": [{}], "batch_size": 1}`,
		`{"people": [{"avatar": null}], "batch_size": 1}`,
		`{"people": [null], "batch_size": 1}`,
	} {
		h, err := m.Create([]byte(cfg))
		assert.Zero(t, h, "config %q", cfg)
		assert.True(t, errors.Is(err, feed.ErrInvalidConfig), "config %q", cfg)
	}
	assert.Zero(t, m.Len())
	assert.Equal(t, 8, logs.FilterMessage("rejecting feed config").Len())
}

func TestManager_Destroy(t *testing.T) {
	m, logs := newManager(t)

	h, err := m.Create([]byte(threePeople))
	require.NoError(t, err)
	require.NoError(t, m.Destroy(h))
	assert.Zero(t, m.Len())

	_, err = m.Advance(h)
	assert.True(t, errors.Is(err, ErrInvalidHandle))
	_, err = m.PreloadAll(h)
	assert.True(t, errors.Is(err, ErrInvalidHandle))
	assert.True(t, errors.Is(m.Destroy(h), ErrInvalidHandle))
	assert.Equal(t, 3, logs.FilterMessage("feed source used after destroy").Len())

	_, err = m.Advance(0)
	assert.True(t, errors.Is(err, ErrInvalidHandle))
	_, err = m.Get(12345)
	assert.True(t, errors.Is(err, ErrInvalidHandle))
	assert.Equal(t, 2, logs.FilterMessage("unknown feed source handle").Len())
}

func TestManager_IndependentHandles(t *testing.T) {
	m, _ := newManager(t)

	var handles []uint32
	for i := 1; i <= 3; i++ {
		cfg := fmt.Sprintf(`{"people":[{"avatar":"a"},{"avatar":"b"}],"batch_size":%d}`, i)
		h, err := m.Create([]byte(cfg))
		require.NoError(t, err)
		handles = append(handles, h)
	}
	assert.Equal(t, []uint32{1, 2, 3}, handles)

	for i, h := range handles {
		tick := advance(t, m, h)
		assert.Len(t, tick.Current, i+1)
		assert.Len(t, tick.PreloadImages, i+1)
	}

	assert.Equal(t, 3, m.Close())
	assert.Zero(t, m.Len())
	assert.Zero(t, m.Close())
}

func TestManager_Deterministic(t *testing.T) {
	a, _ := newManager(t)
	b, _ := newManager(t)

	ha, err := a.Create([]byte(threePeople))
	require.NoError(t, err)
	hb, err := b.Create([]byte(threePeople))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		ra, err := a.Advance(ha)
		require.NoError(t, err)
		rb, err := b.Advance(hb)
		require.NoError(t, err)
		require.Equal(t, string(ra), string(rb))
		a.Release(ra)
		b.Release(rb)
	}
}

func TestManager_Seed(t *testing.T) {
	m, _ := newManager(t)

	s, err := m.Seed()
	require.NoError(t, err)
	parsed, err := random.ParseSeed(s)
	require.NoError(t, err)
	assert.Equal(t, "manager-test-seed-0123456789abcd", string(parsed[:]))
}
