package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func TestLessonNotes_Lifecycle(t *testing.T) {
	e := newEngine(t, UnlockPolicy{})
	ctx := context.Background()
	e.seed(t, lesson(1, 10, 0), lesson(2, 10, 0))

	late, err := e.progress.CreateNote(ctx, "u1", 1, "  JOIN junta tabelas ", 95)
	require.NoError(t, err)
	assert.Equal(t, "JOIN junta tabelas", late.Content)
	early, err := e.progress.CreateNote(ctx, "u1", 1, "SELECT basico", 12)
	require.NoError(t, err)

	notes, err := e.progress.ListNotes(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, early.ID, notes[0].ID)
	assert.Equal(t, late.ID, notes[1].ID)

	updated, err := e.progress.UpdateNote(ctx, "u1", late.ID, NoteUpdate{TimestampSeconds: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.TimestampSeconds)
	assert.Equal(t, "JOIN junta tabelas", updated.Content)

	updated, err = e.progress.UpdateNote(ctx, "u1", late.ID, NoteUpdate{Content: strPtr("INNER JOIN")})
	require.NoError(t, err)
	assert.Equal(t, "INNER JOIN", updated.Content)
	assert.Equal(t, 5, updated.TimestampSeconds)

	notes, err = e.progress.ListNotes(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, late.ID, notes[0].ID)

	require.NoError(t, e.progress.DeleteNote(ctx, "u1", early.ID))
	assert.ErrorIs(t, e.progress.DeleteNote(ctx, "u1", early.ID), ErrNotFound)

	notes, err = e.progress.ListNotes(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestLessonNotes_OwnerScoped(t *testing.T) {
	e := newEngine(t, UnlockPolicy{})
	ctx := context.Background()
	e.seed(t, lesson(1, 10, 0))

	note, err := e.progress.CreateNote(ctx, "u1", 1, "minha nota", 0)
	require.NoError(t, err)

	_, err = e.progress.UpdateNote(ctx, "u2", note.ID, NoteUpdate{Content: strPtr("hack")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, e.progress.DeleteNote(ctx, "u2", note.ID), ErrNotFound)

	notes, err := e.progress.ListNotes(ctx, "u2", 1)
	require.NoError(t, err)
	assert.Empty(t, notes)

	notes, err = e.progress.ListNotes(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "minha nota", notes[0].Content)
}

func TestLessonNotes_Rejections(t *testing.T) {
	e := newEngine(t, UnlockPolicy{})
	ctx := context.Background()
	e.seed(t, lesson(1, 10, 0), lesson(2, 10, 0))

	_, err := e.progress.CreateNote(ctx, "", 1, "nota", 0)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = e.progress.CreateNote(ctx, "u1", 1, "   ", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.progress.CreateNote(ctx, "u1", 1, "nota", -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.progress.CreateNote(ctx, "u1", 9, "nota", 0)
	assert.ErrorIs(t, err, ErrNotFound)
	// lesson 2 stays locked until lesson 1 is complete
	_, err = e.progress.CreateNote(ctx, "u1", 2, "nota", 0)
	assert.ErrorIs(t, err, ErrLocked)

	note, err := e.progress.CreateNote(ctx, "u1", 1, "nota", 0)
	require.NoError(t, err)
	_, err = e.progress.UpdateNote(ctx, "u1", note.ID, NoteUpdate{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.progress.UpdateNote(ctx, "u1", note.ID, NoteUpdate{TimestampSeconds: intPtr(-3)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	notes, err := e.progress.ListNotes(ctx, "", 1)
	require.NoError(t, err)
	assert.Empty(t, notes)
}
