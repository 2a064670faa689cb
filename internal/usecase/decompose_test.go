package usecase

import (
	"reflect"
	"testing"
)

func TestParseNumberedItems(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain numbered list",
			text: "1. Define the schema\n2. Write the queries\n3. Add indexes",
			want: []string{"Define the schema", "Write the queries", "Add indexes"},
		},
		{
			name: "prose around the list is ignored",
			text: "Here is my plan:\n\n1. First step\n2. Second step\n\nLet me know if that works.",
			want: []string{"First step", "Second step"},
		},
		{
			name: "leading whitespace is tolerated",
			text: "  1. Indented item\n\t2. Tab-indented item",
			want: []string{"Indented item", "Tab-indented item"},
		},
		{
			name: "multi-digit numbering",
			text: "9. Ninth\n10. Tenth\n11. Eleventh",
			want: []string{"Ninth", "Tenth", "Eleventh"},
		},
		{
			name: "parenthesis style is not a numbered list",
			text: "1) First\n2) Second",
			want: nil,
		},
		{
			name: "bare digits without a period are ignored",
			text: "1 First\n2 Second",
			want: nil,
		},
		{
			name: "empty items are dropped",
			text: "1.\n2. Real item\n3.   ",
			want: []string{"Real item"},
		},
		{
			name: "no numbered lines at all",
			text: "I cannot break this problem down any further.",
			want: nil,
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "decimal section headings still match on the leading digit",
			text: "1.2 is a version number",
			want: []string{"2 is a version number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseNumberedItems(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseNumberedItems() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
