package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vanced-support/signaling-service/internal/domain"
)

// Registry owns the process-wide set of active rooms: one instance per
// room id, created on first join, evicted as soon as the room empties.
type Registry struct {
	log  *slog.Logger
	opts Options

	mu    sync.Mutex
	rooms map[string]*Room // roomID -> active instance
}

func NewRegistry(log *slog.Logger, opts Options) *Registry {
	return &Registry{
		log:   log,
		opts:  opts,
		rooms: make(map[string]*Room),
	}
}

// Join registers conn in the room identified by roomID, creating the room
// if it does not exist. A join that races a room mid-shutdown is retried
// against a fresh instance.
func (g *Registry) Join(ctx context.Context, roomID, peerID, nickname string, conn Conn) (*Room, error) {
	for {
		r := g.acquire(roomID)
		err := r.Join(ctx, peerID, nickname, conn)
		if errors.Is(err, domain.ErrRoomClosed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Lookup returns the active room for roomID, if any.
func (g *Registry) Lookup(roomID string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[roomID]
	return r, ok
}

// Len returns the number of active rooms.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

func (g *Registry) acquire(roomID string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[roomID]
	if !ok {
		r = newRoom(roomID, g.log, g.opts, g.evict)
		g.rooms[roomID] = r
		activeRooms.Inc()
		g.log.Info("room created", slog.String("room", roomID))
		go r.run()
	}
	return r
}

// evict is called from the room's own goroutine once it has emptied. The
// identity check keeps a stale instance from unmapping its successor.
func (g *Registry) evict(r *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cur, ok := g.rooms[r.id]; ok && cur == r {
		delete(g.rooms, r.id)
		activeRooms.Dec()
	}
}
