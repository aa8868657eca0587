package quota

import (
	"context"
	"fmt"
	"time"

	"resumetrack/internal/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserQuota is the persisted per-user quota row. One row per user, created
// lazily on first admission. UserID is unique by primary key, which is the
// storage contract the rest of the package relies on.
type UserQuota struct {
	UserID      string     `gorm:"primaryKey;size:64"`
	Count       int        `gorm:"not null;default:0"`
	WindowStart *time.Time `gorm:"type:timestamptz"`
	LastReset   *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"not null;default:now()"`
	UpdatedAt   time.Time  `gorm:"not null;default:now()"`
}

// TableName pins the table name independent of gorm pluralization rules.
func (UserQuota) TableName() string {
	return "user_quotas"
}

// Usage converts the persisted row to the pure quota state.
func (q UserQuota) Usage() Usage {
	return Usage{Count: q.Count, WindowStart: q.WindowStart, LastReset: q.LastReset}
}

// Status is the read-model of a user's quota, shaped for profile/usage
// endpoints.
type Status struct {
	Used           int        `json:"used"`
	Remaining      int        `json:"remaining"`
	DaysUntilReset int        `json:"daysUntilReset"`
	WindowStart    *time.Time `json:"windowStart,omitempty"`
	LastReset      *time.Time `json:"lastReset,omitempty"`
}

// Tracker decides admission for new analyses and accounts for consumption.
// Admission and accounting run as one transaction with a row lock on the
// user's quota row, so concurrent creates by the same user serialize and
// cannot over-admit.
type Tracker struct {
	DB     *gorm.DB
	Now    func() time.Time
	Logger *errors.Logger
}

// NewTracker creates a Tracker over the given database handle.
func NewTracker(db *gorm.DB, logger *errors.Logger) *Tracker {
	return &Tracker{DB: db, Now: time.Now, Logger: logger}
}

// Admit performs check-then-consume atomically. It returns a QuotaExceeded
// error when the user has no allowance left in a live window, and a storage
// error when the database cannot be reached.
func (t *Tracker) Admit(ctx context.Context, userID string) error {
	now := t.Now()

	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockQuotaRow(tx, userID)
		if err != nil {
			return err
		}

		next, err := Consume(row.Usage(), now)
		if err != nil {
			return err
		}

		row.Count = next.Count
		row.WindowStart = next.WindowStart
		row.LastReset = next.LastReset
		row.UpdatedAt = now
		return tx.Save(row).Error
	})

	if err != nil {
		if errors.IsType(err, errors.ErrorTypeQuota) {
			if t.Logger != nil {
				t.Logger.Info("Quota admission denied", "user_id", userID)
			}
			return err
		}
		return wrapStorageErr(err, "quota admission failed")
	}

	if t.Logger != nil {
		t.Logger.Debug("Quota consumed", "user_id", userID)
	}
	return nil
}

// Status returns the user's current quota view without touching state.
// An unknown user has the full allowance.
func (t *Tracker) Status(ctx context.Context, userID string) (Status, error) {
	now := t.Now()

	var row UserQuota
	err := t.DB.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return Status{}, wrapStorageErr(err, "quota status read failed")
	}

	u := row.Usage()
	return Status{
		Used:           u.Count,
		Remaining:      Remaining(u, now),
		DaysUntilReset: DaysUntilReset(u, now),
		WindowStart:    u.WindowStart,
		LastReset:      u.LastReset,
	}, nil
}

// CanCreate reports whether a create would currently be admitted. It never
// mutates the window; callers racing past it still serialize inside Admit.
func (t *Tracker) CanCreate(ctx context.Context, userID string) (bool, error) {
	now := t.Now()

	var row UserQuota
	err := t.DB.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return true, nil
		}
		return false, wrapStorageErr(err, "quota read failed")
	}
	return CanCreate(row.Usage(), now), nil
}

// lockQuotaRow fetches the user's quota row FOR UPDATE, creating it when the
// user has never been seen.
func lockQuotaRow(tx *gorm.DB, userID string) (*UserQuota, error) {
	var row UserQuota
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&row).Error
	if err == nil {
		return &row, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	row = UserQuota{UserID: userID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	// Re-lock after insert so two first-time requests serialize.
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func wrapStorageErr(err error, msg string) error {
	return errors.NewStorageError(errors.ErrCodeStorageUnavailable,
		fmt.Sprintf("%s: %v", msg, err), err)
}
