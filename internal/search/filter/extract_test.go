// internal/search/filter/extract_test.go
package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bare object",
			text: `{"location": "Seattle"}`,
			want: `{"location": "Seattle"}`,
		},
		{
			name: "object wrapped in prose",
			text: "Sure! Here is the JSON you asked for:\n{\"bedrooms\": 2}\nLet me know if you need anything else.",
			want: `{"bedrooms": 2}`,
		},
		{
			name: "nested objects stay together",
			text: `prefix {"price_range": {"min": 1000, "max": 2000}} suffix`,
			want: `{"price_range": {"min": 1000, "max": 2000}}`,
		},
		{
			name: "brace inside string value does not close early",
			text: `{"location": "weird {place}", "bedrooms": 1}`,
			want: `{"location": "weird {place}", "bedrooms": 1}`,
		},
		{
			name: "escaped quote inside string",
			text: `{"note": "she said \"hi}\" loudly"}`,
			want: `{"note": "she said \"hi}\" loudly"}`,
		},
		{
			name: "unterminated object yields nothing",
			text: `{"location": "Seattle"`,
			want: "",
		},
		{
			name: "no object at all",
			text: "I could not find any search parameters in your request.",
			want: "",
		},
		{
			name: "empty input",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractObject(tt.text))
		})
	}
}

func TestExtractArray(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bare array",
			text: `["quiet", "soundproof"]`,
			want: `["quiet", "soundproof"]`,
		},
		{
			name: "array wrapped in prose",
			text: "Keywords to look for:\n[\"thin walls\", \"street noise\"]\nHope this helps!",
			want: `["thin walls", "street noise"]`,
		},
		{
			name: "bracket inside string value",
			text: `["noise [at night]", "quiet"]`,
			want: `["noise [at night]", "quiet"]`,
		},
		{
			name: "unterminated array yields nothing",
			text: `["quiet"`,
			want: "",
		},
		{
			name: "no array",
			text: "no keywords needed",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractArray(tt.text))
		})
	}
}
