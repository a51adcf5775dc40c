package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/repository"
	"github.com/ousidus/ticket-machine/internal/storage"
)

type CreateTicket struct {
	Title       string
	Description string
	Priority    models.Priority
	Attachments []string
	Tags        []string
}

// MoveRequest carries drag-and-drop coordinates from the board.
type MoveRequest struct {
	TicketID  string
	From      models.Status
	To        models.Status
	FromIndex int
	ToIndex   int
}

// TicketService validates and applies ticket mutations, keeping registered
// projections consistent: apply optimistically, persist, revert on failure.
type TicketService struct {
	tickets  repository.TicketRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	roles    repository.RoleRepository
	store    storage.Store
	log      zerolog.Logger

	mu          sync.Mutex
	projections []Projection
}

func NewTicketService(
	tickets repository.TicketRepository,
	comments repository.CommentRepository,
	users repository.UserRepository,
	roles repository.RoleRepository,
	store storage.Store,
	log zerolog.Logger,
) *TicketService {
	return &TicketService{
		tickets:  tickets,
		comments: comments,
		users:    users,
		roles:    roles,
		store:    store,
		log:      log.With().Str("component", "tickets").Logger(),
	}
}

// RegisterProjection adds a live projection to the optimistic update path.
// Projections not registered here still converge via the change feed.
func (s *TicketService) RegisterProjection(p Projection) {
	s.mu.Lock()
	s.projections = append(s.projections, p)
	s.mu.Unlock()
}

func (s *TicketService) List(ctx context.Context, f repository.TicketFilter) ([]models.Ticket, int, error) {
	return s.tickets.List(ctx, f)
}

func (s *TicketService) Get(ctx context.Context, id string) (*models.Ticket, error) {
	return s.tickets.Get(ctx, id)
}

func (s *TicketService) Create(ctx context.Context, userID string, in CreateTicket) (*models.Ticket, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	prio := in.Priority
	if prio == "" {
		prio = models.PriorityMedium
	}
	if !prio.Valid() {
		return nil, ErrInvalidPriority
	}

	t := &models.Ticket{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      models.StatusOpen, // forced regardless of client input
		Priority:    prio,
		UserID:      userID,
		Attachments: in.Attachments,
		Tags:        in.Tags,
	}
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, err
	}
	// No optimistic projection insert: the creation reaches every live
	// projection through its feed insert event.
	return t, nil
}

func (s *TicketService) Update(ctx context.Context, id string, p repository.TicketPatch) (*models.Ticket, error) {
	if p.Status != nil && !p.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	return s.tickets.Update(ctx, id, p)
}

// ChangeStatus moves a ticket to newStatus. Every status is reachable from
// every status. A call that targets the ticket's current status is a no-op
// and performs no write, which also makes immediate repetition idempotent.
func (s *TicketService) ChangeStatus(ctx context.Context, id string, newStatus models.Status) error {
	if !newStatus.Valid() {
		return ErrInvalidStatus
	}

	cur, err := s.tickets.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return repository.ErrNotFound
	}
	if cur.Status == newStatus {
		return nil
	}

	now := time.Now().UTC()
	return s.optimistic(ctx, id, func(t *models.Ticket) {
		t.Status = newStatus
		t.UpdatedAt = now
	}, repository.TicketPatch{Status: &newStatus})
}

// Assign sets or clears (nil) the assignee. The target user id is not
// validated against the directory; an unknown assignee simply renders as
// "Unknown User" downstream.
func (s *TicketService) Assign(ctx context.Context, id string, userID *string) error {
	now := time.Now().UTC()
	return s.optimistic(ctx, id, func(t *models.Ticket) {
		t.AssignedTo = userID
		t.UpdatedAt = now
	}, repository.TicketPatch{SetAssignee: true, AssignedTo: userID})
}

// Move handles a board drag-and-drop. A drop onto the source cell is
// detected by coordinates and causes zero repository calls.
func (s *TicketService) Move(ctx context.Context, req MoveRequest) error {
	if req.From == req.To && req.FromIndex == req.ToIndex {
		return nil
	}
	return s.ChangeStatus(ctx, req.TicketID, req.To)
}

// optimistic rewrites the entry in every registered projection, persists
// the patch, and reverts the pre-images when the write fails.
func (s *TicketService) optimistic(ctx context.Context, id string, apply func(*models.Ticket), patch repository.TicketPatch) error {
	s.mu.Lock()
	projections := append([]Projection(nil), s.projections...)
	s.mu.Unlock()

	type applied struct {
		p    Projection
		prev models.Ticket
	}
	var done []applied
	for _, p := range projections {
		if prev, ok := p.Mutate(id, apply); ok {
			done = append(done, applied{p: p, prev: *prev})
		}
	}

	if _, err := s.tickets.Update(ctx, id, patch); err != nil {
		for _, a := range done {
			a.p.Revert(a.prev)
		}
		s.log.Error().Err(err).Str("ticket", id).Msg("ticket update failed, optimistic patch reverted")
		return err
	}
	return nil
}

// AddComment appends a comment. An empty body after trimming is rejected
// without any repository call.
func (s *TicketService) AddComment(ctx context.Context, ticketID, userID, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyComment
	}
	return s.comments.Create(ctx, ticketID, userID, body)
}

// Comments fetches fresh every time a detail view opens; comments are not
// on the change feed.
func (s *TicketService) Comments(ctx context.Context, ticketID string) ([]models.Comment, error) {
	return s.comments.ListByTicket(ctx, ticketID)
}

// ResolveRole maps a user to an effective role. A missing role record
// degrades to the least-privileged role; so does a lookup failure, but the
// two are logged differently so provisioning gaps stay visible.
func (s *TicketService) ResolveRole(ctx context.Context, userID string) models.Role {
	role, err := s.roles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Str("user", userID).Msg("no role record, defaulting to user")
		} else {
			s.log.Error().Err(err).Str("user", userID).Msg("role lookup failed, defaulting to user")
		}
		return models.RoleUser
	}
	if !role.Valid() {
		s.log.Error().Str("user", userID).Str("role", string(role)).Msg("unknown role value, defaulting to user")
		return models.RoleUser
	}
	return role
}

// Directory lists users for assignment. A PermissionDenied from the
// backing store means "no directory available", not an error.
func (s *TicketService) Directory(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			s.log.Warn().Msg("user directory unavailable for this caller")
			return nil, nil
		}
		return nil, err
	}
	return users, nil
}

// UploadAttachment enforces the size cap before the store is touched.
func (s *TicketService) UploadAttachment(ctx context.Context, ownerID, filename string, size int64, r io.Reader) (string, error) {
	if size > storage.MaxUploadSize {
		return "", storage.ErrFileTooLarge
	}
	return s.store.Upload(ctx, ownerID, filename, r)
}
