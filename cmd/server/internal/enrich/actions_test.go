package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseActionItems(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   []string
	}{
		{"empty", "", []string{}},
		{"none", "None.", []string{}},
		{"portuguese none", "nenhuma", []string{}},
		{"dashes", "- Send report\n- Book room", []string{"Send report", "Book room"}},
		{"mixed bullets", "* one\n• two\n3. three\n4) four", []string{"one", "two", "three", "four"}},
		{"checkboxes", "- [ ] draft agenda\n- [x] invite Bob", []string{"draft agenda", "invite Bob"}},
		{"preamble ignored", "Here are the items:\n- call vendor\n\n- update wiki", []string{"call vendor", "update wiki"}},
		{"plain lines", "Call vendor\nUpdate wiki", []string{"Call vendor", "Update wiki"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseActionItems(tt.answer))
		})
	}
}
