package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single value",
			input:    "transactions_changed",
			expected: []string{"transactions_changed"},
		},
		{
			name:     "two values",
			input:    "transactions_changed, analytics_updated",
			expected: []string{"transactions_changed", "analytics_updated"},
		},
		{
			name:     "no spaces after comma",
			input:    "dashboard_changed,notifications_changed",
			expected: []string{"dashboard_changed", "notifications_changed"},
		},
		{
			name:     "trailing comma",
			input:    "stream_status_changed,",
			expected: []string{"stream_status_changed"},
		},
		{
			name:     "leading comma",
			input:    ",session_started",
			expected: []string{"session_started"},
		},
		{
			name:     "only spaces",
			input:    "   ",
			expected: nil,
		},
		{
			name:     "comma only",
			input:    ",",
			expected: nil,
		},
		{
			name:     "multiple commas",
			input:    ",,transactions_changed,,error_occurred,,",
			expected: []string{"transactions_changed", "error_occurred"},
		},
		{
			name:     "mixed spacing around values",
			input:    "  session_started  ,  session_ended  ",
			expected: []string{"session_started", "session_ended"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseCSV(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseCSV_PreservesInput(t *testing.T) {
	input := "transactions_changed, analytics_updated"
	originalInput := input

	_ = ParseCSV(input)

	assert.Equal(t, originalInput, input, "input should not be modified")
}
