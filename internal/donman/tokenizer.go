package donman

import "strings"

// DetectDelimiter picks tab or comma by counting both characters across the
// header line. Ties go to tab, since a tab-delimited header rarely contains
// tabs inside field names but often contains commas.
func DetectDelimiter(headerLine string) rune {
	tabs := strings.Count(headerLine, "\t")
	commas := strings.Count(headerLine, ",")
	if tabs >= commas {
		return '\t'
	}
	return ','
}

// SplitLine tokenizes one line into fields, honoring quoted content.
//
// Outside quotes a '"' opens quote mode (the quote itself is not copied) and
// the delimiter ends the field. Inside quotes a doubled '"' emits a literal
// quote and a lone '"' closes quote mode, so a quoted field may contain the
// delimiter. Malformed quoting is not an error: an unterminated quote simply
// consumes the rest of the line as field content.
func SplitLine(line string, delimiter rune) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if inQuotes {
			if c == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					current.WriteRune('"')
					i++ // skip the second quote
				} else {
					inQuotes = false
				}
			} else {
				current.WriteRune(c)
			}
			continue
		}

		switch c {
		case '"':
			inQuotes = true
		case delimiter:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}

	// The final field always exists, even when empty.
	fields = append(fields, current.String())
	return fields
}
