package get

import (
	"net/http"

	"github.com/a-h/policybrief/models"
	"github.com/a-h/respond"
)

func New(service string) Handler {
	return Handler{
		service: service,
	}
}

type Handler struct {
	service string
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.WithJSON(w, models.HealthGetResponse{
		Status:  "active",
		Service: h.service,
	}, http.StatusOK)
}
