package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/repository"
)

type TicketRepo struct{ db *pgxpool.Pool }

func NewTicketRepo(db *pgxpool.Pool) *TicketRepo { return &TicketRepo{db: db} }

const ticketCols = `
	t.id::text, t.title, COALESCE(t.description, ''), t.status, t.priority,
	t.user_id::text, t.assigned_to, t.attachments, t.tags, t.created_at, t.updated_at`

func scanTicket(row interface{ Scan(...any) error }, t *models.Ticket) error {
	return row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.UserID, &t.AssignedTo, &t.Attachments, &t.Tags, &t.CreatedAt, &t.UpdatedAt,
	)
}

func (r *TicketRepo) List(ctx context.Context, f repository.TicketFilter) ([]models.Ticket, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	whereSQL, args := buildTicketWhere(f)

	countSQL := `SELECT COUNT(*) FROM tickets t ` + whereSQL
	var total int
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	sortCol := sanitizeSort(f.Sort, "created_at")
	sortOrd := sanitizeOrder(f.Order, "desc")

	args = append(args, f.Limit, f.Offset)
	sql := fmt.Sprintf(`
		SELECT %s
		FROM tickets t
		%s
		ORDER BY t.%s %s
		LIMIT $%d OFFSET $%d
	`, ticketCols, whereSQL, sortCol, sortOrd, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *TicketRepo) Get(ctx context.Context, id string) (*models.Ticket, error) {
	var t models.Ticket
	row := r.db.QueryRow(ctx, `
		SELECT `+ticketCols+`
		FROM tickets t
		WHERE t.id = $1
	`, id)
	if err := scanTicket(row, &t); err != nil {
		if err := mapError(err); err == repository.ErrNotFound {
			return nil, nil
		}
		return nil, mapError(err)
	}
	return &t, nil
}

func (r *TicketRepo) Create(ctx context.Context, t *models.Ticket) error {
	// Status is forced to open at creation regardless of what the caller
	// put in t.Status.
	err := r.db.QueryRow(ctx, `
		INSERT INTO tickets (title, description, status, priority, user_id, assigned_to, attachments, tags)
		VALUES ($1, NULLIF($2, ''), 'open', $3, $4, $5, $6, $7)
		RETURNING id::text, status, created_at, updated_at
	`,
		t.Title, t.Description, t.Priority, t.UserID, t.AssignedTo,
		nonNil(t.Attachments), nonNil(t.Tags),
	).Scan(&t.ID, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return mapError(err)
}

func (r *TicketRepo) Update(ctx context.Context, id string, p repository.TicketPatch) (*models.Ticket, error) {
	sets := []string{"updated_at = now()"}
	args := []any{}

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+itoa(len(args)))
	}

	if p.Title != nil {
		add("title", strings.TrimSpace(*p.Title))
	}
	if p.Description != nil {
		add("description", nullIfEmpty(strings.TrimSpace(*p.Description)))
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.Priority != nil {
		add("priority", *p.Priority)
	}
	if p.SetAssignee {
		add("assigned_to", p.AssignedTo)
	}
	if p.Attachments != nil {
		add("attachments", nonNil(*p.Attachments))
	}
	if p.Tags != nil {
		add("tags", nonNil(*p.Tags))
	}

	args = append(args, id)
	sql := fmt.Sprintf(`
		UPDATE tickets t SET %s
		WHERE t.id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), ticketCols)

	var t models.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, sql, args...), &t); err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

// -----------------------------------------------------------------------------
// Reporting helpers (used by /api/reports)
// -----------------------------------------------------------------------------

func (r *TicketRepo) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := map[models.Status]int{}
	for rows.Next() {
		var s models.Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

func (r *TicketRepo) CountClosedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM tickets
		WHERE status = 'closed' AND updated_at >= $1
	`, since).Scan(&n)
	return n, mapError(err)
}

func (r *TicketRepo) CountOpenByPriority(ctx context.Context) (map[models.Priority]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT priority, COUNT(*) FROM tickets WHERE status <> 'closed' GROUP BY priority
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := map[models.Priority]int{}
	for rows.Next() {
		var p models.Priority
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, err
		}
		out[p] = n
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func buildTicketWhere(f repository.TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if s := strings.TrimSpace(f.Q); s != "" {
		p := "%" + s + "%"
		args = append(args, p, p)
		clauses = append(clauses, "(t.title ILIKE $"+itoa(len(args)-1)+" OR t.description ILIKE $"+itoa(len(args))+")")
	}
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, "t.status = $"+itoa(len(args)))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		clauses = append(clauses, "t.priority = $"+itoa(len(args)))
	}
	if s := strings.TrimSpace(f.Tag); s != "" {
		args = append(args, s)
		clauses = append(clauses, "$"+itoa(len(args))+" = ANY(t.tags)")
	}
	if s := strings.TrimSpace(f.OwnerID); s != "" {
		args = append(args, s)
		clauses = append(clauses, "t.user_id = $"+itoa(len(args))+"::uuid")
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func sanitizeSort(s, def string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "created_at", "updated_at", "priority":
		return strings.ToLower(strings.TrimSpace(s))
	default:
		return def
	}
}

func sanitizeOrder(o, def string) string {
	switch strings.ToLower(strings.TrimSpace(o)) {
	case "asc", "desc":
		return strings.ToLower(strings.TrimSpace(o))
	default:
		return def
	}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nonNil keeps TEXT[] columns non-null for a nil slice.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func itoa(i int) string { return strconv.Itoa(i) }
