package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimhsiao/fragmind/internal/db"
	"github.com/kimhsiao/fragmind/internal/models"
	"github.com/kimhsiao/fragmind/internal/todo"
)

func newTaskFixture(t *testing.T) (*db.Repository, *todo.Controller, *printer, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	repo := db.NewRepository(conn.DB)
	tasks := todo.NewController(repo, todo.WithGracePeriod(time.Hour))
	t.Cleanup(func() {
		tasks.Shutdown()
		repo.Close()
		conn.Close()
	})
	var buf bytes.Buffer
	return repo, tasks, &printer{out: &buf}, &buf
}

// =====================================================
// uncheck after an interrupt
// =====================================================

func TestUncheck_cancelsPendingCompletion(t *testing.T) {
	ctx := context.Background()
	repo, tasks, p, buf := newTaskFixture(t)
	item := models.NewTodo("water plants", nil, time.Now())
	require.NoError(t, repo.CreateTodo(ctx, item))
	id := string(item.ID)

	_, err := tasks.Toggle(ctx, id, true)
	require.NoError(t, err)

	require.NoError(t, uncheck(ctx, p, tasks, id, item.Title))
	assert.Contains(t, buf.String(), `Cancelled; "water plants" stays pending`)
	assert.Empty(t, tasks.AwaitingCommit())

	state, err := tasks.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, todo.StatePending, state)
}

func TestUncheck_commitWonTheRace(t *testing.T) {
	ctx := context.Background()
	repo, tasks, p, buf := newTaskFixture(t)
	item := models.NewTodo("call the bank", nil, time.Now())
	require.NoError(t, repo.CreateTodo(ctx, item))
	id := string(item.ID)

	_, err := repo.SetTodoCompletion(ctx, id, true, time.Now())
	require.NoError(t, err)

	require.NoError(t, uncheck(ctx, p, tasks, id, item.Title))
	assert.Contains(t, buf.String(), `Completed "call the bank"`)

	stored, err := repo.GetTodo(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
}

func TestUncheck_missingTodo(t *testing.T) {
	_, tasks, p, _ := newTaskFixture(t)
	assert.Error(t, uncheck(context.Background(), p, tasks, "00000000-0000-4000-8000-000000000000", "gone"))
}

func TestTodoCommand_uncheckOnlyDuringDone(t *testing.T) {
	root := newRootCommand()
	cmd, _, err := root.Find([]string{"todo"})
	require.NoError(t, err)
	var done bool
	for _, sub := range cmd.Commands() {
		assert.NotEqual(t, "undo", sub.Name())
		if sub.Name() == "done" {
			done = true
			assert.Contains(t, sub.Long, "Ctrl-C")
		}
	}
	assert.True(t, done)
}
