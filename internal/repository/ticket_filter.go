package repository

import "github.com/ousidus/ticket-machine/internal/models"

type TicketFilter struct {
	Q        string // free-text over title/description
	Status   models.Status
	Priority models.Priority
	Tag      string
	OwnerID  string // scope to creator; empty = all tickets
	Limit    int
	Offset   int
	Sort     string // created_at, updated_at, priority
	Order    string // asc|desc
}

// TicketPatch carries partial updates; nil fields are left untouched.
// SetAssignee distinguishes "don't touch" from "clear" (AssignedTo == nil).
type TicketPatch struct {
	Title       *string
	Description *string
	Status      *models.Status
	Priority    *models.Priority
	SetAssignee bool
	AssignedTo  *string
	Attachments *[]string
	Tags        *[]string
}

// Empty reports whether the patch would change nothing.
func (p TicketPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && !p.SetAssignee && p.Attachments == nil && p.Tags == nil
}
