package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantErr string
		wantKey string
	}{
		{name: "clean object", text: `{"companyName":"Globex"}`, wantKey: "companyName"},
		{name: "whitespace", text: "\n  {\"companyName\":\"Globex\"}\n", wantKey: "companyName"},
		{name: "wrapped in prose", text: "Here is the data:\n{\"companyName\":\"Globex\"}\nHope this helps.", wantKey: "companyName"},
		{name: "markdown fence", text: "```json\n{\"companyName\":\"Globex\"}\n```", wantKey: "companyName"},
		{name: "nested braces", text: `Result: {"a":{"b":1},"companyName":"x"} done`, wantKey: "companyName"},
		{name: "no braces", text: "I could not find anything.", wantErr: MsgNoJSONObject},
		{name: "only closing brace before opening", text: "} nothing {", wantErr: MsgNoJSONObject},
		{name: "empty", text: "", wantErr: MsgNoJSONObject},
		{name: "broken span", text: `prefix {"companyName": } suffix`, wantErr: MsgUnparsableJSON},
		{name: "two objects", text: `{"a":1} and {"b":2}`, wantErr: MsgUnparsableJSON},
		{name: "array", text: `[{"companyName":"Globex"}]`, wantErr: MsgInvalidJSON},
		{name: "string", text: `"just text"`, wantErr: MsgInvalidJSON},
		{name: "null", text: `null`, wantErr: MsgInvalidJSON},
		{name: "number", text: `42`, wantErr: MsgInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			obj, err := ExtractJSON(tt.text)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				var fe *FormatError
				assert.True(t, errors.As(err, &fe))
				assert.Nil(t, obj)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, obj, tt.wantKey)
		})
	}
}
