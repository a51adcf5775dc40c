package handlers

import (
	"errors"
	"net/http"

	"github.com/ousidus/ticket-machine/internal/repository"
	"github.com/ousidus/ticket-machine/internal/service"
	"github.com/ousidus/ticket-machine/internal/storage"
	"github.com/ousidus/ticket-machine/internal/utils"
)

// respondError maps the service/repository error vocabulary onto HTTP
// status codes in one place.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrForbidden):
		utils.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, repository.ErrAlreadyExists):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidPriority),
		errors.Is(err, service.ErrEmptyComment):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrFileTooLarge):
		utils.Error(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		utils.Error(w, http.StatusInternalServerError, err.Error())
	}
}
