package timeentry

import (
	"errors"
	"math"
	"time"
)

const (
	MinHours = 0.01
	MaxHours = 24.00

	// MaxDailyHours caps the sum of one employee's hours on a single
	// calendar date, including already-persisted entries.
	MaxDailyHours = 24.00

	MinDescriptionLength = 10
)

// TimeEntry is a single unit of logged work. Immutable once created except
// through explicit update/delete; never removed when the owning employee is
// soft-deleted.
type TimeEntry struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	EmployeeID  int64      `json:"employee_id" gorm:"column:employee_id;not null;index"`
	EntryDate   time.Time  `json:"date" gorm:"column:entry_date;type:date;not null;index"`
	Hours       float64    `json:"hours" gorm:"type:decimal(5,2);not null"`
	Description string     `json:"description" gorm:"not null"`
	Billable    bool       `json:"billable" gorm:"default:false"`
	MatterCode  *string    `json:"matter_code,omitempty" gorm:"column:matter_code"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" gorm:"column:deleted_at"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (TimeEntry) TableName() string {
	return "time_entries"
}

// Hundredths converts hours to int64 hundredths. All cap arithmetic and
// summary totals run on hundredths so float rounding can never let
// 20.00 + 5.00 slip under the 24-hour cap or make summaries drift.
func Hundredths(hours float64) int64 {
	return int64(math.Round(hours * 100))
}

// HoursFromHundredths converts back for presentation.
func HoursFromHundredths(h int64) float64 {
	return float64(h) / 100
}

var (
	ErrTimeEntryNotFound = errors.New("time entry not found")
)
