package extract

import (
	"bytes"
	"errors"
	"os"

	"github.com/goccy/go-json"
)

var errJSONRoot = errors.New("JSON root must be an array")

func readJSON(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, readErr(path, err)
	}

	trimmed := bytes.TrimSpace(bytes.TrimPrefix(raw, utf8BOM))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, readErr(path, errJSONRoot)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, readErr(path, err)
	}

	texts := make([]string, 0, len(items))
	for _, item := range items {
		var buf bytes.Buffer
		if err := json.Compact(&buf, item); err != nil {
			return nil, readErr(path, err)
		}
		texts = append(texts, buf.String())
	}
	return texts, nil
}
