package catalog

import (
	"net/http"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, "service not found")
)

// Service represents a help-desk service offering (e.g., software install,
// hardware repair). DurationMin determines the appointment slot length.
type Service struct {
	ID          string
	Name        string
	NameTH      string
	Description string
	DurationMin int
}
