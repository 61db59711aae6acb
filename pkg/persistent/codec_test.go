package persistent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDocumentIsIndented(t *testing.T) {
	b, err := encodeDocument(map[string]any{"b": 1, "a": "x"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"x\",\n  \"b\": 1\n}\n", string(b))

	b, err = encodeDocument(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(b))
}

func TestDecodeDocument(t *testing.T) {
	data, err := decodeDocument([]byte(` {"k": [1, {"x": null}]} `))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": []any{1.0, map[string]any{"x": nil}}}, data)

	for _, bad := range []string{"", "   ", "null", "42", `"str"`, "[]", "{", `{"a":1} trailing`} {
		data, err := decodeDocument([]byte(bad))
		assert.Error(t, err, "input %q", bad)
		assert.NotNil(t, data)
		assert.Empty(t, data)
	}
}

func TestNormalize(t *testing.T) {
	v, err := normalize(map[string]int{"n": 7})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 7.0}, v)

	_, err = normalize(func() {})
	assert.Error(t, err)
}

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	require.NoError(t, writeFileAtomic(path, []byte("first"), 0o600))
	require.NoError(t, writeFileAtomic(path, []byte("second"), 0o600))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
