package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repos bundles every store backed by one pool so callers wire a single
// value instead of four.
type Repos struct {
	Tickets  *TicketRepo
	Comments *CommentRepo
	Users    *UserRepo
	Roles    *RoleRepo
}

func NewRepos(db *pgxpool.Pool) Repos {
	return Repos{
		Tickets:  NewTicketRepo(db),
		Comments: NewCommentRepo(db),
		Users:    NewUserRepo(db),
		Roles:    NewRoleRepo(db),
	}
}
