package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n{\"name\": \"Jane Doe\"}\n```", `{"name": "Jane Doe"}`},
		{"bare fence", "```\n[\"Go\", \"SQL\"]\n```", `["Go", "SQL"]`},
		{"fence with other language", "```javascript\n{\"name\": \"Jane\"}\n```", `{"name": "Jane"}`},
		{"plain text bullet", "  Built 12 services in Go  ", "Built 12 services in Go"},
		{"bullet with brackets kept", "Cut p99 latency [from 900ms] to 200ms", "Cut p99 latency [from 900ms] to 200ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain object", `{"order": [2, 0, 1]}`, `{"order": [2, 0, 1]}`},
		{"preamble", "Here is the ranking you asked for:\n{\"order\": [1, 0]}", `{"order": [1, 0]}`},
		{"trailing chatter", "[\"Go\", \"Kafka\"]\n\nLet me know if you need more.", `["Go", "Kafka"]`},
		{"fenced with preamble", "```json\nSure! {\"header\": {\"name\": \"Jane\"}}\n```", `{"header": {"name": "Jane"}}`},
		{"brackets inside strings", `Result: {"bullet": "Cut cost {by 30%]", "ok": true} done`, `{"bullet": "Cut cost {by 30%]", "ok": true}`},
		{"escaped quotes", `{"bullet": "Led \"Project X\" launch"} thanks`, `{"bullet": "Led \"Project X\" launch"}`},
		{"no json", "I cannot help with that.", "I cannot help with that."},
		{"unterminated", `{"order": [1, 0`, `{"order": [1, 0`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.input))
		})
	}
}
