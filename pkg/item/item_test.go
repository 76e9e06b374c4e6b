package item

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarah-happy/tote/pkg/chunk"
)

func mustTime(t *testing.T, s string) Time {
	t.Helper()
	tm, err := ParseTime(s)
	require.NoError(t, err)
	return tm
}

func TestFileRoundTrip(t *testing.T) {
	mt := NewTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	it := File("a/x", mt, 1, "deadbeef", []chunk.Descriptor{{Size: 1}})

	b, err := json.Marshal(it)
	require.NoError(t, err)

	var back Item
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, it.Type, back.Type)
	assert.Equal(t, it.Name, back.Name)
	assert.Equal(t, it.Size, back.Size)
	assert.Equal(t, it.SHA256, back.SHA256)
	assert.False(t, back.Opaque)
}

func TestUnknownTypePassesThroughOpaque(t *testing.T) {
	raw := `{"type":"widget","gizmo":true}`
	var it Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	assert.True(t, it.Opaque)

	b, err := json.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(b))
}

func TestMissingTypeIsOpaqueStream(t *testing.T) {
	raw := `{"foo":"bar","n":3}`
	var it Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	assert.True(t, it.Opaque)
	assert.Equal(t, "", it.Type)

	b, err := json.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(b))
}

func TestUnknownFieldsPreserved(t *testing.T) {
	raw := `{"type":"dir","name":"a","mtime":"2024-03-01T12:00:00.000000+00:00","future_field":"kept"}`
	var it Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	assert.Equal(t, TypeDir, it.Type)
	assert.Contains(t, it.Extra, "future_field")

	b, err := json.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(b))
}

func TestLegacyTimestampFormats(t *testing.T) {
	for _, s := range []string{
		"2024-03-01T12:00:00.000000+00:00",
		"2024-03-01T12:00:00Z",
		"2024-03-01T12:00:00",
	} {
		tm, err := ParseTime(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2024, tm.Year())
	}
}

func TestCanonicalOrdering(t *testing.T) {
	names := []string{"a", "a/x", "a/y", "b"}
	items := make([]Item, len(names))
	for i, n := range names {
		items[i] = Dir(n, NewTime(time.Now()))
	}
	// shuffle then sort
	shuffled := []Item{items[3], items[1], items[0], items[2]}
	SortByName(shuffled)
	for i, it := range shuffled {
		assert.Equal(t, names[i], it.Name)
	}
}

func TestFoldSortsByNameMin(t *testing.T) {
	f := Fold(nil, 2, "m", "z")
	d := Dir("a", NewTime(time.Now()))
	items := []Item{f, d}
	SortByName(items)
	assert.Equal(t, "a", items[0].Name)
}

func TestEncodeDecodeStream(t *testing.T) {
	mt := mustTime(t, "2024-03-01T12:00:00.000000+00:00")
	items := []Item{
		Dir("a", mt),
		File("a/x", mt, 1, "deadbeef", nil),
		File("a/y", mt, 2, "cafebabe", nil),
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeStream(&buf, items))
	assert.Contains(t, buf.String(), "---\n")

	decoded, err := DecodeStream(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	assert.Equal(t, "a", decoded[0].Name)
	assert.Equal(t, "a/x", decoded[1].Name)
	assert.Equal(t, "a/y", decoded[2].Name)
}

func TestDecodeStreamEmpty(t *testing.T) {
	items, err := DecodeStream(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPathKeyStripsDotDot(t *testing.T) {
	assert.Equal(t, []string{"a", "a", "b"}, PathKey("a/../a/b"))
	assert.Equal(t, []string{"x"}, PathKey("/x"))
}
