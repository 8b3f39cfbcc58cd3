package timeentry

import (
	"fmt"
	"strings"
	"time"

	errors "github.com/frahmantamala/people-analytics/internal"
	"github.com/frahmantamala/people-analytics/internal/core/common/validation"
)

type CreateTimeEntryDTO struct {
	EmployeeID  int64     `json:"employee_id"`
	EntryDate   time.Time `json:"date"`
	Hours       float64   `json:"hours"`
	Description string    `json:"description"`
	Billable    bool      `json:"billable"`
	MatterCode  *string   `json:"matter_code,omitempty"`
}

func (dto *CreateTimeEntryDTO) Normalize() {
	dto.Description = strings.TrimSpace(dto.Description)
	if dto.MatterCode != nil {
		trimmed := strings.TrimSpace(*dto.MatterCode)
		if trimmed == "" {
			dto.MatterCode = nil
		} else {
			dto.MatterCode = &trimmed
		}
	}
}

// Validate checks the entry against the field-level rules. The daily cap is
// checked separately via ValidateDailyCap since it needs persisted state.
func (dto CreateTimeEntryDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("employee_id", dto.EmployeeID).Required()
	v.Field("date", dto.EntryDate).Required().NotFuture()
	v.Field("hours", dto.Hours).HoursRange(MinHours, MaxHours)
	v.Field("description", dto.Description).Required().MinLength(MinDescriptionLength)
	return v.Validate()
}

// ValidateDailyCap verifies the candidate hours plus the employee's
// already-persisted hours on the same date stay within the daily cap. Pure
// over the snapshot the caller provides.
func ValidateDailyCap(candidateHours, persistedHours float64) *errors.AppError {
	total := Hundredths(candidateHours) + Hundredths(persistedHours)
	if total > Hundredths(MaxDailyHours) {
		message := fmt.Sprintf(
			"total hours for this date would be %.2f, exceeding the daily maximum of %.2f",
			HoursFromHundredths(total), MaxDailyHours)
		return errors.NewValidationError(message, errors.ErrCodeDailyHoursExceeded)
	}
	return nil
}

type UpdateTimeEntryDTO struct {
	EntryDate   *time.Time `json:"date,omitempty"`
	Hours       *float64   `json:"hours,omitempty"`
	Description *string    `json:"description,omitempty"`
	Billable    *bool      `json:"billable,omitempty"`
	MatterCode  *string    `json:"matter_code,omitempty"`
}

func (dto UpdateTimeEntryDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.EntryDate != nil {
		v.Field("date", *dto.EntryDate).Required().NotFuture()
	}
	if dto.Hours != nil {
		v.Field("hours", *dto.Hours).HoursRange(MinHours, MaxHours)
	}
	if dto.Description != nil {
		v.Field("description", strings.TrimSpace(*dto.Description)).Required().MinLength(MinDescriptionLength)
	}
	return v.Validate()
}

type ListTimeEntriesQuery struct {
	Limit      int
	Offset     int
	EmployeeID *int64
	StartDate  *time.Time
	EndDate    *time.Time
	Billable   *bool
	Search     string
}

type TimeEntriesResponse struct {
	TimeEntries []*TimeEntry `json:"time_entries"`
	Total       int64        `json:"total"`
	Limit       int          `json:"limit"`
	Offset      int          `json:"offset"`
}
