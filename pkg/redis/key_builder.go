package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

func (kb *KeyBuilder) KeyEventBySlug(slug string) string {
	return kb.BuildKey(fmt.Sprintf(KeyEventBySlug, slug))
}

func (kb *KeyBuilder) KeyEventByID(eventID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyEventByID, eventID))
}

func (kb *KeyBuilder) KeyProposalSummary(proposalID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyProposalSummary, proposalID))
}

func (kb *KeyBuilder) KeyMemberRole(teamID, userID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyMemberRole, teamID, userID))
}

func (kb *KeyBuilder) KeyBulkLock(fingerprint string) string {
	return kb.BuildKey(fmt.Sprintf(KeyBulkLock, fingerprint))
}

func (kb *KeyBuilder) KeyNotifications() string {
	return kb.BuildKey(KeyNotifications)
}

// KeyCustom builds a key from an arbitrary pattern
func (kb *KeyBuilder) KeyCustom(pattern string, args ...interface{}) string {
	return kb.BuildKey(fmt.Sprintf(pattern, args...))
}
