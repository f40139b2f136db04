package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcauth-eu/keyportal/internal/domain"
)

func TestNextLabel(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   string
	}{
		{name: "no labels", labels: nil, want: "ssh-key-1"},
		{name: "no matching labels", labels: []string{"laptop", "work"}, want: "ssh-key-1"},
		{name: "single default label", labels: []string{"ssh-key-1"}, want: "ssh-key-2"},
		{name: "gap is not filled", labels: []string{"ssh-key-1", "ssh-key-3", "other"}, want: "ssh-key-4"},
		{name: "numeric not lexicographic", labels: []string{"ssh-key-9", "ssh-key-10"}, want: "ssh-key-11"},
		{name: "prefix without digits ignored", labels: []string{"ssh-key-", "ssh-key-abc"}, want: "ssh-key-1"},
		{name: "leading zeros", labels: []string{"ssh-key-007"}, want: "ssh-key-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NextLabel(tt.labels))
		})
	}
}
