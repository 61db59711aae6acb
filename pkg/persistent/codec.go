package persistent

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

var errNotObject = errors.New("document is not a JSON object")

func encodeDocument(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// decodeDocument always returns a usable map; the error is informational.
func decodeDocument(b []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return map[string]any{}, errNotObject
	}

	var data map[string]any
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return map[string]any{}, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// normalize round-trips v through JSON so the cache holds exactly what a
// reload from disk would produce.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// writeFileAtomic writes b via a uniquely named temp file in the target
// directory, then renames it over path.
func writeFileAtomic(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	// No-op after a successful rename.
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
