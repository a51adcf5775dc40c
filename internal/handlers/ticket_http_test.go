package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ousidus/ticket-machine/internal/middleware"
	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/repository"
	"github.com/ousidus/ticket-machine/internal/service"
)

// stubTicketService records the last call per operation and returns canned
// values. Unset operations return zero values, never errors.
type stubTicketService struct {
	lastFilter repository.TicketFilter
	lastMove   service.MoveRequest
	lastCreate service.CreateTicket
	createErr  error
	statusErr  error
	ticket     *models.Ticket
	tickets    []models.Ticket
	total      int
}

func (s *stubTicketService) List(ctx context.Context, f repository.TicketFilter) ([]models.Ticket, int, error) {
	s.lastFilter = f
	return s.tickets, s.total, nil
}

func (s *stubTicketService) Get(ctx context.Context, id string) (*models.Ticket, error) {
	return s.ticket, nil
}

func (s *stubTicketService) Create(ctx context.Context, userID string, in service.CreateTicket) (*models.Ticket, error) {
	s.lastCreate = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.Ticket{ID: "t-new", Title: in.Title, Status: models.StatusOpen, UserID: userID}, nil
}

func (s *stubTicketService) Update(ctx context.Context, id string, p repository.TicketPatch) (*models.Ticket, error) {
	return s.ticket, nil
}

func (s *stubTicketService) ChangeStatus(ctx context.Context, id string, st models.Status) error {
	return s.statusErr
}

func (s *stubTicketService) Assign(ctx context.Context, id string, userID *string) error {
	return nil
}

func (s *stubTicketService) Move(ctx context.Context, req service.MoveRequest) error {
	s.lastMove = req
	return nil
}

func (s *stubTicketService) AddComment(ctx context.Context, ticketID, userID, body string) (*models.Comment, error) {
	return &models.Comment{ID: "c1", TicketID: ticketID, UserID: userID, Body: body}, nil
}

func (s *stubTicketService) Comments(ctx context.Context, ticketID string) ([]models.Comment, error) {
	return nil, nil
}

func (s *stubTicketService) Directory(ctx context.Context) ([]models.User, error) {
	return nil, nil
}

func (s *stubTicketService) UploadAttachment(ctx context.Context, ownerID, filename string, size int64, r io.Reader) (string, error) {
	return "", nil
}

func mount(h *TicketHTTP) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/tickets", h.List())
	r.Post("/api/tickets", h.Create())
	r.Get("/api/tickets/{id}", h.Get())
	r.Post("/api/tickets/{id}/status", h.ChangeStatus())
	r.Post("/api/tickets/{id}/move", h.Move())
	return r
}

func asUser(r *http.Request, uid string, role models.Role) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.CtxUserID, uid)
	ctx = context.WithValue(ctx, middleware.CtxRole, string(role))
	return r.WithContext(ctx)
}

func TestListScopesEndUsersToOwnTickets(t *testing.T) {
	stub := &stubTicketService{}
	srv := mount(NewTicketHTTP(stub))

	r := asUser(httptest.NewRequest(http.MethodGet, "/api/tickets?status=open", nil), "u1", models.RoleUser)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", stub.lastFilter.OwnerID)
	assert.Equal(t, models.StatusOpen, stub.lastFilter.Status)
}

func TestListReviewerSeesEverything(t *testing.T) {
	stub := &stubTicketService{total: 7}
	srv := mount(NewTicketHTTP(stub))

	r := asUser(httptest.NewRequest(http.MethodGet, "/api/tickets", nil), "u1", models.RoleReviewer)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, stub.lastFilter.OwnerID)
	assert.Equal(t, "7", w.Header().Get("X-Total-Count"))
}

func TestCreateUnauthenticated(t *testing.T) {
	srv := mount(NewTicketHTTP(&stubTicketService{}))

	r := httptest.NewRequest(http.MethodPost, "/api/tickets", strings.NewReader(`{"title":"x"}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateValidationBubblesAs400(t *testing.T) {
	stub := &stubTicketService{createErr: service.ErrTitleRequired}
	srv := mount(NewTicketHTTP(stub))

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/tickets", strings.NewReader(`{"title":""}`)), "u1", models.RoleUser)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetForeignTicketForbiddenForEndUser(t *testing.T) {
	stub := &stubTicketService{ticket: &models.Ticket{ID: "t1", UserID: "someone-else"}}
	srv := mount(NewTicketHTTP(stub))

	r := asUser(httptest.NewRequest(http.MethodGet, "/api/tickets/t1", nil), "u1", models.RoleUser)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = asUser(httptest.NewRequest(http.MethodGet, "/api/tickets/t1", nil), "u1", models.RoleReviewer)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMovePassesCoordinates(t *testing.T) {
	stub := &stubTicketService{}
	srv := mount(NewTicketHTTP(stub))

	body := `{"from":"open","to":"closed","fromIndex":1,"toIndex":0}`
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/tickets/t1/move", strings.NewReader(body)), "u1", models.RoleReviewer)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, service.MoveRequest{
		TicketID: "t1",
		From:     models.StatusOpen, To: models.StatusClosed,
		FromIndex: 1, ToIndex: 0,
	}, stub.lastMove)
}

func TestChangeStatusInvalid(t *testing.T) {
	stub := &stubTicketService{statusErr: service.ErrInvalidStatus}
	srv := mount(NewTicketHTTP(stub))

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/tickets/t1/status", strings.NewReader(`{"status":"archived"}`)), "u1", models.RoleReviewer)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
