package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(path string, logger *slog.Logger) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, readErr(path, err)
	}

	src, err := decodeCharset(raw, logger)
	if err != nil {
		return nil, readErr(path, err)
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []string
	for {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readErr(path, err)
		}
		if text, ok := joinRow(cells); ok {
			rows = append(rows, text)
		}
	}
	return rows, nil
}

// decodeCharset returns a UTF-8 reader over raw. Valid UTF-8 input is passed
// through; anything else is run through charset detection.
func decodeCharset(raw []byte, logger *slog.Logger) (io.Reader, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return bytes.NewReader(raw), nil
	}

	result, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil {
		return nil, err
	}
	enc, err := lookupEncoding(result.Charset)
	if err != nil {
		return nil, err
	}
	logger.Debug("decoding csv", "charset", result.Charset, "confidence", result.Confidence)
	return transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.New("unsupported charset " + name)
	}
	return enc, nil
}
