package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const channel = "ticket_changes"

// Listener holds one dedicated connection in LISTEN mode and fans ticket
// change events out to any number of subscribers. Projections and SSE
// clients each hold their own subscription and tear it down independently.
type Listener struct {
	dsn string
	log zerolog.Logger

	mu   sync.Mutex
	subs map[string]func(Event)
}

func NewListener(dsn string, log zerolog.Logger) *Listener {
	return &Listener{
		dsn:  dsn,
		log:  log.With().Str("component", "feed").Logger(),
		subs: make(map[string]func(Event)),
	}
}

type Subscription struct {
	l    *Listener
	id   string
	once sync.Once
}

// Subscribe registers fn for every future event. fn runs on the listener
// goroutine; it must not block.
func (l *Listener) Subscribe(fn func(Event)) *Subscription {
	id := uuid.NewString()
	l.mu.Lock()
	l.subs[id] = fn
	l.mu.Unlock()
	return &Subscription{l: l, id: id}
}

// Unsubscribe removes the subscriber. Dispatch holds the same lock, so no
// event is delivered after Unsubscribe returns.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.l.mu.Lock()
		delete(s.l.subs, s.id)
		s.l.mu.Unlock()
	})
}

// Run connects, listens and dispatches until ctx is done, reconnecting
// with a fixed backoff after connection loss.
func (l *Listener) Run(ctx context.Context) error {
	const backoff = 2 * time.Second

	for {
		conn, err := pgx.Connect(ctx, l.dsn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Error().Err(err).Msg("feed connect failed, retrying")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			continue
		}

		err = l.listen(ctx, conn)
		_ = conn.Close(context.Background())
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.log.Warn().Err(err).Msg("feed connection lost, reconnecting")
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
	}
}

func (l *Listener) listen(ctx context.Context, conn *pgx.Conn) error {
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return err
	}
	l.log.Info().Str("channel", channel).Msg("feed listening")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := decodeEvent([]byte(n.Payload))
		if err != nil {
			l.log.Error().Err(err).Str("payload", n.Payload).Msg("bad feed payload")
			continue
		}
		l.dispatch(ev)
	}
}

func (l *Listener) dispatch(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, fn := range l.subs {
		fn(ev)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
