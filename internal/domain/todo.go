package domain

import "time"

// Priority ranks a todo. Values are persisted as small integers.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

func (p Priority) Valid() bool {
	return p >= PriorityNone && p <= PriorityHigh
}

func (p Priority) String() string {
	switch p {
	case PriorityNone:
		return "none"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}
	return "unknown"
}

type Todo struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"not null;default:''"`
	Priority    Priority  `gorm:"not null;default:0"`
	DueDate     time.Time `gorm:"not null"`
	Completed   bool      `gorm:"not null;default:false"`
	Cancelled   bool      `gorm:"not null;default:false"`
	UserID      string    `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// SetCompleted flips the completion flag. Completing a todo clears its
// cancellation so a todo is never both.
func (t *Todo) SetCompleted(completed bool, now time.Time) {
	t.Completed = completed
	if completed {
		t.Cancelled = false
	}
	t.touch(now)
}

// SetCancelled is the mirror of SetCompleted.
func (t *Todo) SetCancelled(cancelled bool, now time.Time) {
	t.Cancelled = cancelled
	if cancelled {
		t.Completed = false
	}
	t.touch(now)
}

// touch moves UpdatedAt forward, never backwards.
func (t *Todo) touch(now time.Time) {
	if now.After(t.UpdatedAt) {
		t.UpdatedAt = now
	}
}
