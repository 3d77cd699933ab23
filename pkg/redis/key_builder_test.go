package redis

import (
	"testing"
)

func TestKeyBuilder_Environment_Prefixes(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment should use prod prefix",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment should use staging prefix",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment should use staging prefix",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Unknown environment should default to prod prefix",
			environment:    "unknown",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			if kb.GetPrefix() != tt.expectedPrefix {
				t.Errorf("NewKeyBuilder(%s).GetPrefix() = %s, want %s",
					tt.environment, kb.GetPrefix(), tt.expectedPrefix)
			}
		})
	}
}

func TestKeyBuilder_KeyGeneration(t *testing.T) {
	kb := NewKeyBuilder("production")

	tests := []struct {
		name     string
		method   func() string
		expected string
	}{
		{
			name:     "EventBySlug key",
			method:   func() string { return kb.KeyEventBySlug("gophercon") },
			expected: "prod:cfp:event:slug:gophercon",
		},
		{
			name:     "EventByID key",
			method:   func() string { return kb.KeyEventByID("ev-1") },
			expected: "prod:cfp:event:ev-1",
		},
		{
			name:     "ProposalSummary key",
			method:   func() string { return kb.KeyProposalSummary("p-1") },
			expected: "prod:cfp:proposal:p-1:summary",
		},
		{
			name:     "MemberRole key",
			method:   func() string { return kb.KeyMemberRole("team-1", "user-1") },
			expected: "prod:cfp:team:team-1:member:user-1",
		},
		{
			name:     "BulkLock key",
			method:   func() string { return kb.KeyBulkLock("abcd1234") },
			expected: "prod:cfp:bulk:abcd1234",
		},
		{
			name:     "Notifications key",
			method:   kb.KeyNotifications,
			expected: "prod:cfp:notifications",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.method(); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}
