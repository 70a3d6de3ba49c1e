package extract

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"unicode/utf8"
)

const maxLineSize = 16 * 1024 * 1024

var errNotUTF8 = errors.New("file is not valid UTF-8")

func readText(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, readErr(path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !utf8.Valid(line) {
			return nil, readErr(path, errNotUTF8)
		}
		if s := strings.TrimSpace(string(line)); s != "" {
			lines = append(lines, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, readErr(path, err)
	}
	return lines, nil
}
