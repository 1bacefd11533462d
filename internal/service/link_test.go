package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractGroupRef(t *testing.T) {
	tests := []struct {
		name          string
		link          string
		expected      string
		expectedError bool
	}{
		{
			name:     "https t.me link",
			link:     "https://t.me/mygroup",
			expected: "mygroup",
		},
		{
			name:     "http t.me link with query",
			link:     "http://t.me/mygroup?start=1",
			expected: "mygroup",
		},
		{
			name:     "t.me link with trailing path",
			link:     "t.me/mygroup/123",
			expected: "mygroup",
		},
		{
			name:     "at-prefixed username",
			link:     "@mygroup",
			expected: "mygroup",
		},
		{
			name:     "bare username",
			link:     "mygroup",
			expected: "mygroup",
		},
		{
			name:     "numeric chat id passes through",
			link:     "-1001234567890",
			expected: "-1001234567890",
		},
		{
			name:     "surrounding whitespace",
			link:     "  @mygroup  ",
			expected: "mygroup",
		},
		{
			name:          "empty link",
			link:          "",
			expectedError: true,
		},
		{
			name:          "whitespace only",
			link:          "   ",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ExtractGroupRef(tt.link)

			if tt.expectedError {
				assert.ErrorIs(t, err, ErrInvalidGroupLink)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, ref)
			}
		})
	}
}
