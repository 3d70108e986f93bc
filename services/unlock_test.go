package services

import (
	"testing"

	"sqlquest/models"

	"github.com/stretchr/testify/assert"
)

func lessonRecord(id, pct int, completed bool) models.ProgressRecord {
	return models.ProgressRecord{ContentType: models.ContentLesson, ContentID: id, ProgressPercentage: pct, Completed: completed}
}

func intPtr(v int) *int { return &v }

func TestUnlockPolicy_LessonChain(t *testing.T) {
	p := UnlockPolicy{FirstLessonID: 1}
	lesson := func(id int) models.ContentItem { return models.ContentItem{Type: models.ContentLesson, ID: id} }

	empty := NewProgressSnapshot(nil)
	assert.True(t, p.IsUnlocked(lesson(1), empty))
	assert.False(t, p.IsUnlocked(lesson(2), empty))
	assert.Equal(t, LessonUnlocked, p.LessonState(1, empty))
	assert.Equal(t, LessonLocked, p.LessonState(2, empty))

	partial := NewProgressSnapshot([]models.ProgressRecord{lessonRecord(1, 80, false)})
	assert.False(t, p.IsUnlocked(lesson(2), partial))

	done := NewProgressSnapshot([]models.ProgressRecord{lessonRecord(1, 100, true)})
	assert.Equal(t, LessonCompleted, p.LessonState(1, done))
	assert.True(t, p.IsUnlocked(lesson(2), done))
	assert.Equal(t, LessonUnlocked, p.LessonState(2, done))
	assert.False(t, p.IsUnlocked(lesson(3), done))
}

func TestUnlockPolicy_CompletedFlagWithoutFullPercentageDoesNotUnlock(t *testing.T) {
	p := UnlockPolicy{FirstLessonID: 1}
	snap := NewProgressSnapshot([]models.ProgressRecord{lessonRecord(1, 90, true)})
	assert.False(t, p.IsUnlocked(models.ContentItem{Type: models.ContentLesson, ID: 2}, snap))
}

func TestUnlockPolicy_ExercisesFollowParentLesson(t *testing.T) {
	p := UnlockPolicy{FirstLessonID: 1}
	orphan := models.ContentItem{Type: models.ContentExercise, ID: 9}
	inFirst := models.ContentItem{Type: models.ContentExercise, ID: 1, ParentLessonID: intPtr(1)}
	inSecond := models.ContentItem{Type: models.ContentChallenge, ID: 2, ParentLessonID: intPtr(2)}

	empty := NewProgressSnapshot(nil)
	assert.True(t, p.IsUnlocked(orphan, empty))
	assert.True(t, p.IsUnlocked(inFirst, empty), "parent lesson unlocked is enough")
	assert.False(t, p.IsUnlocked(inSecond, empty))

	done := NewProgressSnapshot([]models.ProgressRecord{lessonRecord(1, 100, true)})
	assert.True(t, p.IsUnlocked(inSecond, done))
}

func TestUnlockPolicy_RequireParentCompleted(t *testing.T) {
	p := UnlockPolicy{FirstLessonID: 1, RequireParentCompleted: true}
	ex := models.ContentItem{Type: models.ContentExercise, ID: 1, ParentLessonID: intPtr(1)}

	assert.False(t, p.IsUnlocked(ex, NewProgressSnapshot(nil)))
	assert.True(t, p.IsUnlocked(ex, NewProgressSnapshot([]models.ProgressRecord{lessonRecord(1, 100, true)})))
}

func TestUnlockPolicy_MaterialsNeverGated(t *testing.T) {
	p := UnlockPolicy{FirstLessonID: 1}
	m := models.ContentItem{Type: models.ContentMaterial, ID: 4, ParentLessonID: intPtr(7)}
	assert.True(t, p.IsUnlocked(m, NewProgressSnapshot(nil)))
}
