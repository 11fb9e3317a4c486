package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Here you go: {\"a\":1} hope that helps", `{"a":1}`},
		{"no object", "no json here", "no json here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JSONObject(tt.raw))
		})
	}
}

func TestDecodeObjectStrictRejectsUnknownKeys(t *testing.T) {
	var out struct {
		What string `json:"what"`
	}
	assert.NoError(t, DecodeObject(`{"what":"x","extra":1}`, &out))
	assert.Error(t, DecodeObjectStrict(`{"what":"x","extra":1}`, &out))
	assert.NoError(t, DecodeObjectStrict(`{"what":"x"}`, &out))
	assert.Equal(t, "x", out.What)
}
