package donman

import (
	"bufio"
	"fmt"
	"io"
)

// utf8BOM is the byte order mark Windows tools prepend to UTF-8 exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadLines reads the upload into memory as raw lines, stripping a leading
// UTF-8 BOM if present. DONMAN exports are small (the upload endpoint caps
// them) so whole-file reads keep the parser simple; line order is preserved
// exactly, which in-file duplicate detection depends on.
func ReadLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(utf8BOM))
	if err == nil && head[0] == utf8BOM[0] && head[1] == utf8BOM[1] && head[2] == utf8BOM[2] {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("discard BOM: %w", err)
		}
	}

	var lines []string
	scanner := bufio.NewScanner(br)
	// Allow long rows: quoted notes fields can run well past the default
	// 64KB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return lines, nil
}
