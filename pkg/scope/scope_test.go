package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: []string{}},
		{name: "single", input: "openid", expected: []string{"openid"}},
		{name: "dedupes and keeps order", input: "openid email  openid profile", expected: []string{"openid", "email", "profile"}},
		{name: "tabs and newlines", input: "openid\temail\n", expected: []string{"openid", "email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.input))
		})
	}
}

func TestSetOperations(t *testing.T) {
	have := []string{"openid", "email"}

	assert.True(t, Subset([]string{"openid"}, have))
	assert.False(t, Subset([]string{"openid", "offline_access"}, have))
	assert.Equal(t, []string{"email"}, Intersect([]string{"profile", "email"}, have))
	assert.Equal(t, []string{"offline_access"}, Missing([]string{"openid", "offline_access"}, have))
	assert.Equal(t, "openid email", Join(have))
}
