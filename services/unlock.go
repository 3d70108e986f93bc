package services

import "sqlquest/models"

// LessonState is the position of one lesson in the linear unlock chain.
type LessonState string

const (
	LessonLocked    LessonState = "locked"
	LessonUnlocked  LessonState = "unlocked"
	LessonCompleted LessonState = "completed"
)

type progressKey struct {
	contentType models.ContentType
	contentID   int
}

// ProgressSnapshot is a read-only view of one user's progress ledger.
type ProgressSnapshot struct {
	records map[progressKey]models.ProgressRecord
}

func NewProgressSnapshot(records []models.ProgressRecord) ProgressSnapshot {
	m := make(map[progressKey]models.ProgressRecord, len(records))
	for _, r := range records {
		m[progressKey{r.ContentType, r.ContentID}] = r
	}
	return ProgressSnapshot{records: m}
}

func (s ProgressSnapshot) Get(t models.ContentType, id int) (models.ProgressRecord, bool) {
	r, ok := s.records[progressKey{t, id}]
	return r, ok
}

func (s ProgressSnapshot) lessonDone(id int) bool {
	r, ok := s.Get(models.ContentLesson, id)
	return ok && r.Completed && r.ProgressPercentage == 100
}

// UnlockPolicy resolves visibility of content for one snapshot. It holds no
// mutable state, so a single value can be shared across goroutines.
type UnlockPolicy struct {
	FirstLessonID int

	// RequireParentCompleted makes exercises and challenges wait for their
	// lesson to be completed instead of merely unlocked.
	RequireParentCompleted bool
}

func (p UnlockPolicy) lessonReachable(id int, snap ProgressSnapshot) bool {
	return id == p.FirstLessonID || snap.lessonDone(id-1)
}

// LessonState walks the chain: locked until the previous lesson is done,
// completed once this lesson's record reaches 100%.
func (p UnlockPolicy) LessonState(id int, snap ProgressSnapshot) LessonState {
	if !p.lessonReachable(id, snap) {
		return LessonLocked
	}
	if snap.lessonDone(id) {
		return LessonCompleted
	}
	return LessonUnlocked
}

func (p UnlockPolicy) IsUnlocked(item models.ContentItem, snap ProgressSnapshot) bool {
	switch item.Type {
	case models.ContentLesson:
		return p.lessonReachable(item.ID, snap)
	case models.ContentExercise, models.ContentChallenge:
		if item.ParentLessonID == nil {
			return true
		}
		state := p.LessonState(*item.ParentLessonID, snap)
		if p.RequireParentCompleted {
			return state == LessonCompleted
		}
		return state != LessonLocked
	default:
		return true
	}
}
