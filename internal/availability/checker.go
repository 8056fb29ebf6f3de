package availability

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/timeslot"
)

// BookedSlot is the slice of an appointment the checker needs to detect
// double-bookings. The appointment repository adapts its rows into this shape.
type BookedSlot struct {
	AppointmentID string
	StartTime     string // HH:MM
	EndTime       string // HH:MM
	CustomerName  string
	ServiceName   string
}

// AppointmentSource lists the non-cancelled appointments assigned to a staff
// member on a calendar day. excludeID, when non-empty, removes one appointment
// from consideration (used when re-checking a reschedule against itself).
type AppointmentSource interface {
	ListBookedSlots(ctx context.Context, staffID string, date time.Time, excludeID string) ([]BookedSlot, error)
}

// Checker decides whether a staff member can take a time range on a day,
// reporting every conflict it finds against unavailability windows and
// existing appointments.
type Checker struct {
	repo         Repository
	appointments AppointmentSource
}

func NewChecker(repo Repository, appointments AppointmentSource) *Checker {
	return &Checker{
		repo:         repo,
		appointments: appointments,
	}
}

// Check scans unavailability records and existing appointments for the given
// staff member and day, and reports every overlap with [startTime, endTime).
//
// The check fails open: if either underlying read fails, the range is reported
// as available rather than blocking the caller. The failure is logged for
// later reconciliation.
func (c *Checker) Check(ctx context.Context, staffID string, date time.Time, startTime, endTime string, excludeAppointmentID string) (CheckResult, error) {
	startMin, err := timeslot.ParseClock(startTime)
	if err != nil {
		return CheckResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	endMin, err := timeslot.ParseClock(endTime)
	if err != nil {
		return CheckResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if startMin >= endMin {
		return CheckResult{}, ErrInvalidTimeRange
	}

	var conflicts []Conflict

	windows, err := c.repo.ListForStaffDay(ctx, staffID, date)
	if err != nil {
		log.Printf("availability check failed open (unavailability read): staff=%s date=%s: %v",
			staffID, date.Format("2006-01-02"), err)
		return CheckResult{Available: true}, nil
	}

	for _, w := range windows {
		wStart, err := timeslot.ParseClock(w.StartTime)
		if err != nil {
			log.Printf("skipping unavailability %s with bad start time %q: %v", w.ID, w.StartTime, err)
			continue
		}
		wEnd, err := timeslot.ParseClock(w.EndTime)
		if err != nil {
			log.Printf("skipping unavailability %s with bad end time %q: %v", w.ID, w.EndTime, err)
			continue
		}

		if timeslot.Overlaps(startMin, endMin, wStart, wEnd) {
			conflicts = append(conflicts, Conflict{
				Type:   ConflictUnavailable,
				Reason: w.Reason,
				Details: ConflictDetails{
					StartTime: w.StartTime,
					EndTime:   w.EndTime,
					Recurring: w.Recurring,
				},
			})
		}
	}

	booked, err := c.appointments.ListBookedSlots(ctx, staffID, date, excludeAppointmentID)
	if err != nil {
		log.Printf("availability check failed open (appointment read): staff=%s date=%s: %v",
			staffID, date.Format("2006-01-02"), err)
		return CheckResult{Available: true}, nil
	}

	for _, b := range booked {
		bStart, err := timeslot.ParseClock(b.StartTime)
		if err != nil {
			log.Printf("skipping appointment %s with bad start time %q: %v", b.AppointmentID, b.StartTime, err)
			continue
		}
		bEnd, err := timeslot.ParseClock(b.EndTime)
		if err != nil {
			log.Printf("skipping appointment %s with bad end time %q: %v", b.AppointmentID, b.EndTime, err)
			continue
		}

		if timeslot.Overlaps(startMin, endMin, bStart, bEnd) {
			conflicts = append(conflicts, Conflict{
				Type:   ConflictDoubleBooked,
				Reason: fmt.Sprintf("Already assigned to %s", b.ServiceName),
				Details: ConflictDetails{
					AppointmentID: b.AppointmentID,
					StartTime:     b.StartTime,
					EndTime:       b.EndTime,
					CustomerName:  b.CustomerName,
					Service:       b.ServiceName,
				},
			})
		}
	}

	return CheckResult{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}
