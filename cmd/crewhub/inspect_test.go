package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/crewhub/internal/domain"
)

func TestConflictSummary(t *testing.T) {
	t.Parallel()

	assert.Empty(t, conflictSummary(nil))
	assert.Equal(t, "Tower A, Welding course", conflictSummary([]domain.Conflict{
		{Commitment: domain.Commitment{Kind: domain.CommitmentProject, Name: "Tower A"}},
		{Commitment: domain.Commitment{Kind: domain.CommitmentTraining, Name: "Welding course"}},
	}))
}

func TestCommandsRegistered(t *testing.T) {
	t.Parallel()

	want := map[string]bool{}
	for _, c := range []string{"serve", "migrate", "availability", "preview", "history", "token"} {
		want[c] = true
	}
	for _, name := range []string{serveCmd().Name(), migrateCmd().Name(), availabilityCmd().Name(), previewCmd().Name(), historyCmd().Name(), tokenCmd().Name()} {
		assert.True(t, want[name], name)
	}
}
