package http

import "github.com/itsc-helpdesk/helpdesk-backend/internal/catalog"

// ServiceResponse is the shape of a service offering in API responses.
type ServiceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NameTH      string `json:"name_th"`
	Description string `json:"description"`
	DurationMin int    `json:"duration_min"`
}

func NewServiceResponse(s *catalog.Service) ServiceResponse {
	return ServiceResponse{
		ID:          s.ID,
		Name:        s.Name,
		NameTH:      s.NameTH,
		Description: s.Description,
		DurationMin: s.DurationMin,
	}
}
