package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ousidus/ticket-machine/internal/middleware"
	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/repository"
	"github.com/ousidus/ticket-machine/internal/service"
	"github.com/ousidus/ticket-machine/internal/utils"
)

// TicketService is the slice of the service layer the HTTP surface needs.
type TicketService interface {
	List(ctx context.Context, f repository.TicketFilter) ([]models.Ticket, int, error)
	Get(ctx context.Context, id string) (*models.Ticket, error)
	Create(ctx context.Context, userID string, in service.CreateTicket) (*models.Ticket, error)
	Update(ctx context.Context, id string, p repository.TicketPatch) (*models.Ticket, error)
	ChangeStatus(ctx context.Context, id string, s models.Status) error
	Assign(ctx context.Context, id string, userID *string) error
	Move(ctx context.Context, req service.MoveRequest) error
	AddComment(ctx context.Context, ticketID, userID, body string) (*models.Comment, error)
	Comments(ctx context.Context, ticketID string) ([]models.Comment, error)
	Directory(ctx context.Context) ([]models.User, error)
	UploadAttachment(ctx context.Context, ownerID, filename string, size int64, r io.Reader) (string, error)
}

type TicketHTTP struct {
	svc TicketService
}

func NewTicketHTTP(svc TicketService) *TicketHTTP { return &TicketHTTP{svc: svc} }

// -----------------------------------------------------------------------------
// GET /api/tickets
// End users see only their own tickets; reviewers and admins see all.
// -----------------------------------------------------------------------------
func (h *TicketHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		f := repository.TicketFilter{
			Q:        strings.TrimSpace(qv.Get("q")),
			Status:   models.Status(strings.TrimSpace(qv.Get("status"))),
			Priority: models.Priority(strings.TrimSpace(qv.Get("priority"))),
			Tag:      strings.TrimSpace(qv.Get("tag")),
			Limit:    utils.QueryInt(qv, "limit", 50),
			Offset:   utils.QueryInt(qv, "offset", 0),
			Sort:     qv.Get("sort"),
			Order:    qv.Get("order"),
		}
		if !middleware.RoleFrom(r.Context()).CanReview() {
			f.OwnerID = middleware.UserIDFrom(r.Context())
		}

		items, total, err := h.svc.List(r.Context(), f)
		if err != nil {
			respondError(w, err)
			return
		}
		if items == nil {
			items = []models.Ticket{}
		}
		w.Header().Set("X-Total-Count", strconv.Itoa(total))
		utils.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
	}
}

// -----------------------------------------------------------------------------
// GET /api/tickets/{id}
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		t, err := h.svc.Get(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		if t == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		if !middleware.RoleFrom(r.Context()).CanReview() && t.UserID != middleware.UserIDFrom(r.Context()) {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}

// -----------------------------------------------------------------------------
// POST /api/tickets
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Create() http.HandlerFunc {
	type inDTO struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Priority    models.Priority `json:"priority"`
		Attachments []string        `json:"attachments"`
		Tags        []string        `json:"tags"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		uid := middleware.UserIDFrom(r.Context())
		if uid == "" {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		t, err := h.svc.Create(r.Context(), uid, service.CreateTicket{
			Title:       in.Title,
			Description: in.Description,
			Priority:    in.Priority,
			Attachments: in.Attachments,
			Tags:        in.Tags,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		utils.JSON(w, http.StatusCreated, t)
	}
}

// -----------------------------------------------------------------------------
// PATCH /api/tickets/{id}
// Field edits for triage roles. Assignment has its own endpoint because
// JSON cannot distinguish "absent" from "null" in a plain *string field.
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Update() http.HandlerFunc {
	type inDTO struct {
		Title       *string          `json:"title"`
		Description *string          `json:"description"`
		Status      *models.Status   `json:"status"`
		Priority    *models.Priority `json:"priority"`
		Attachments *[]string        `json:"attachments"`
		Tags        *[]string        `json:"tags"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		t, err := h.svc.Update(r.Context(), id, repository.TicketPatch{
			Title:       in.Title,
			Description: in.Description,
			Status:      in.Status,
			Priority:    in.Priority,
			Attachments: in.Attachments,
			Tags:        in.Tags,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}

// -----------------------------------------------------------------------------
// POST /api/tickets/{id}/status
// -----------------------------------------------------------------------------
func (h *TicketHTTP) ChangeStatus() http.HandlerFunc {
	type inDTO struct {
		Status models.Status `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := h.svc.ChangeStatus(r.Context(), id, in.Status); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// -----------------------------------------------------------------------------
// POST /api/tickets/{id}/assignee
// Body {"userId": "..."} assigns, {"userId": null} clears.
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Assign() http.HandlerFunc {
	type inDTO struct {
		UserID *string `json:"userId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := h.svc.Assign(r.Context(), id, in.UserID); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// -----------------------------------------------------------------------------
// POST /api/tickets/{id}/move, board drag-and-drop coordinates
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Move() http.HandlerFunc {
	type inDTO struct {
		From      models.Status `json:"from"`
		To        models.Status `json:"to"`
		FromIndex int           `json:"fromIndex"`
		ToIndex   int           `json:"toIndex"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		err := h.svc.Move(r.Context(), service.MoveRequest{
			TicketID:  id,
			From:      in.From,
			To:        in.To,
			FromIndex: in.FromIndex,
			ToIndex:   in.ToIndex,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// -----------------------------------------------------------------------------
// GET/POST /api/tickets/{id}/comments
// -----------------------------------------------------------------------------
func (h *TicketHTTP) ListComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comments, err := h.svc.Comments(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		if comments == nil {
			comments = []models.Comment{}
		}
		utils.JSON(w, http.StatusOK, comments)
	}
}

func (h *TicketHTTP) AddComment() http.HandlerFunc {
	type inDTO struct {
		Body string `json:"body"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		uid := middleware.UserIDFrom(r.Context())
		if uid == "" {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		c, err := h.svc.AddComment(r.Context(), id, uid, in.Body)
		if err != nil {
			respondError(w, err)
			return
		}
		utils.JSON(w, http.StatusCreated, c)
	}
}
