package feed

import (
	"encoding/json"
	"time"

	"github.com/ousidus/ticket-machine/internal/models"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is one row change on the tickets table. Delete events carry the
// last known row image; at minimum the id is reliable.
type Event struct {
	Op     Op
	Ticket models.Ticket
}

// envelope matches the JSON produced by the notify_ticket_change trigger,
// which serializes rows with snake_case column names.
type envelope struct {
	Op     Op        `json:"op"`
	Ticket ticketRow `json:"ticket"`
}

type ticketRow struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Status      models.Status   `json:"status"`
	Priority    models.Priority `json:"priority"`
	UserID      string          `json:"user_id"`
	AssignedTo  *string         `json:"assigned_to"`
	Attachments []string        `json:"attachments"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func decodeEvent(payload []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, err
	}
	t := models.Ticket{
		ID:          env.Ticket.ID,
		Title:       env.Ticket.Title,
		Status:      env.Ticket.Status,
		Priority:    env.Ticket.Priority,
		UserID:      env.Ticket.UserID,
		AssignedTo:  env.Ticket.AssignedTo,
		Attachments: env.Ticket.Attachments,
		Tags:        env.Ticket.Tags,
		CreatedAt:   env.Ticket.CreatedAt,
		UpdatedAt:   env.Ticket.UpdatedAt,
	}
	if env.Ticket.Description != nil {
		t.Description = *env.Ticket.Description
	}
	return Event{Op: env.Op, Ticket: t}, nil
}
