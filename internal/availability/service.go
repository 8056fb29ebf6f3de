package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/timeslot"
)

type CreateRequest struct {
	StaffID   string
	Date      time.Time
	StartTime string
	EndTime   string
	Reason    string
	Recurring bool

	// Force skips the overlapping-appointment warning. Creating a window
	// never moves conflicting appointments either way.
	Force bool
}

type UpdateRequest struct {
	StartTime *string
	EndTime   *string
	Reason    *string
	Recurring *bool
}

type Filter struct {
	StaffID string
	From    *time.Time
	To      *time.Time
}

// Service manages staff unavailability windows.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Unavailability, error)
	List(ctx context.Context, filter Filter) ([]*Unavailability, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Unavailability, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo         Repository
	appointments AppointmentSource
}

func NewService(repo Repository, appointments AppointmentSource) Service {
	return &service{
		repo:         repo,
		appointments: appointments,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Unavailability, error) {
	if req.StaffID == "" || strings.TrimSpace(req.Reason) == "" || req.Date.IsZero() {
		return nil, ErrInvalidInput
	}

	startMin, err := timeslot.ParseClock(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	endMin, err := timeslot.ParseClock(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if startMin >= endMin {
		return nil, ErrInvalidTimeRange
	}

	// Warn about appointments already sitting inside the window so the
	// creator can force or abort. The appointments themselves stay put.
	if !req.Force {
		conflicts, err := s.overlappingAppointments(ctx, req.StaffID, req.Date, startMin, endMin)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			return nil, ErrAppointmentOverlap.WithDetails(conflicts)
		}
	}

	u := &Unavailability{
		StaffID:   req.StaffID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    strings.TrimSpace(req.Reason),
		Recurring: req.Recurring,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) overlappingAppointments(ctx context.Context, staffID string, date time.Time, startMin, endMin int) ([]Conflict, error) {
	booked, err := s.appointments.ListBookedSlots(ctx, staffID, date, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments for overlap warning: %w", err)
	}

	var conflicts []Conflict
	for _, b := range booked {
		bStart, err := timeslot.ParseClock(b.StartTime)
		if err != nil {
			continue
		}
		bEnd, err := timeslot.ParseClock(b.EndTime)
		if err != nil {
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
	return conflicts, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Unavailability, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Unavailability, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.StartTime != nil {
		u.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		u.EndTime = *req.EndTime
	}
	if req.Reason != nil {
		u.Reason = strings.TrimSpace(*req.Reason)
	}
	if req.Recurring != nil {
		u.Recurring = *req.Recurring
	}

	startMin, err := timeslot.ParseClock(u.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	endMin, err := timeslot.ParseClock(u.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if startMin >= endMin {
		return nil, ErrInvalidTimeRange
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
