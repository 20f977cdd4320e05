package donman

import (
	"reflect"
	"testing"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   rune
	}{
		{"tab separated", "DONMAN #\tFirst Name\tSurname", '\t'},
		{"comma separated", "DONMAN #,First Name,Surname", ','},
		{"tie goes to tab", "A\tB,C", '\t'},
		{"no delimiters defaults to tab", "SingleColumn", '\t'},
		{"commas win when more frequent", "A,B,C\tD", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDelimiter(tt.header); got != tt.want {
				t.Errorf("DetectDelimiter(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		delimiter rune
		want      []string
	}{
		{
			name:      "plain fields",
			line:      "a,b,c",
			delimiter: ',',
			want:      []string{"a", "b", "c"},
		},
		{
			name:      "quoted field containing delimiter",
			line:      `a,"b,c",d`,
			delimiter: ',',
			want:      []string{"a", "b,c", "d"},
		},
		{
			name:      "doubled quote inside quotes",
			line:      `"say ""hi""",b`,
			delimiter: ',',
			want:      []string{`say "hi"`, "b"},
		},
		{
			name:      "empty fields preserved",
			line:      "a,,c,",
			delimiter: ',',
			want:      []string{"a", "", "c", ""},
		},
		{
			name:      "unterminated quote consumes rest of line",
			line:      `a,"b,c`,
			delimiter: ',',
			want:      []string{"a", "b,c"},
		},
		{
			name:      "tab delimited with comma content",
			line:      "a\tb,c\td",
			delimiter: '\t',
			want:      []string{"a", "b,c", "d"},
		},
		{
			name:      "empty line is one empty field",
			line:      "",
			delimiter: ',',
			want:      []string{""},
		},
		{
			name:      "quote opens mid-field",
			line:      `ab"c,d"e,f`,
			delimiter: ',',
			want:      []string{"abc,de", "f"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLine(tt.line, tt.delimiter)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLine(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestSplitLineRoundTripsBuildRow(t *testing.T) {
	fields := []string{"1", `O'Brien, "Pat"`, "line\nbreak", "", "plain"}
	line := BuildRow(fields)
	got := SplitLine(line, ',')
	if !reflect.DeepEqual(got, fields) {
		t.Errorf("round trip = %#v, want %#v", got, fields)
	}
}
