package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradlift/ranking-go/internal/domain/model"
)

func TestCommandsRegistered(t *testing.T) {
	cmds := commands()
	for _, name := range []string{"status", "stats", "requeue", "migrate", "db-seed"} {
		cmd, ok := cmds[name]
		require.True(t, ok, "command %s missing", name)
		assert.Equal(t, name, cmd.name)
		assert.NotEmpty(t, cmd.description)
		assert.NotNil(t, cmd.run)
	}
}

func TestProcessingDuration(t *testing.T) {
	started := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	completed := started.Add(750 * time.Millisecond)

	t.Run("unfinished job has no duration", func(t *testing.T) {
		assert.Zero(t, processingDuration(&model.ScoringJob{StartedAt: &started}))
		assert.Zero(t, processingDuration(&model.ScoringJob{}))
	})

	t.Run("finished job", func(t *testing.T) {
		job := &model.ScoringJob{StartedAt: &started, CompletedAt: &completed}
		assert.Equal(t, 750*time.Millisecond, processingDuration(job))
	})
}
