package room

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/vanced-support/signaling-service/internal/domain"
)

// Conn is the transport handle the room delivers frames through. Send must
// be safe to call from the room's event goroutine.
type Conn interface {
	Send(frame any) error
	Close() error
}

const (
	defaultIdleAfter  = 5 * time.Minute
	defaultSweepEvery = time.Minute
)

// Options управляет порогом idle-очистки; нули — дефолты.
type Options struct {
	IdleAfter  time.Duration // возраст+тишина, после которых сессия подлежит уборке
	SweepEvery time.Duration // период sweeper-а
}

func (o Options) withDefaults() Options {
	if o.IdleAfter <= 0 {
		o.IdleAfter = defaultIdleAfter
	}
	if o.SweepEvery <= 0 {
		o.SweepEvery = defaultSweepEvery
	}
	return o
}

type session struct {
	domain.Session
	conn Conn
}

// Room owns all state for one signaling room. Every mutation happens on the
// single run goroutine; callers talk to it through posted events, so the
// session and presence maps need no locking.
type Room struct {
	id   string
	log  *slog.Logger
	opts Options

	sessions map[string]*session
	presence map[string]domain.PresenceEntry

	events chan event
	done   chan struct{}
	count  atomic.Int64

	// seated flips on the first registration; an empty room only shuts
	// down after it has held at least one session.
	seated bool

	// onEmpty is invoked from the run goroutine right before shutdown,
	// while the room still owns its registry slot.
	onEmpty func(*Room)
}

type event interface{ isEvent() }

type joinEvent struct {
	peerID   string
	nickname string
	conn     Conn
	reply    chan error
}

type frameEvent struct {
	peerID string
	data   []byte
}

type leaveEvent struct {
	peerID string
	conn   Conn
}

type infoEvent struct {
	reply chan Info
}

func (joinEvent) isEvent()  {}
func (frameEvent) isEvent() {}
func (leaveEvent) isEvent() {}
func (infoEvent) isEvent()  {}

func newRoom(id string, log *slog.Logger, opts Options, onEmpty func(*Room)) *Room {
	return &Room{
		id:       id,
		log:      log.With(slog.String("room", id)),
		opts:     opts.withDefaults(),
		sessions: make(map[string]*session),
		presence: make(map[string]domain.PresenceEntry),
		events:   make(chan event),
		done:     make(chan struct{}),
		onEmpty:  onEmpty,
	}
}

func (r *Room) ID() string { return r.id }

// Empty reports whether the room currently has no sessions.
func (r *Room) Empty() bool { return r.count.Load() == 0 }

func (r *Room) post(ctx context.Context, ev event) error {
	select {
	case r.events <- ev:
		return nil
	case <-r.done:
		return domain.ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join registers a peer and blocks until the room has processed the
// registration (connected ack sent, user-joined broadcast).
func (r *Room) Join(ctx context.Context, peerID, nickname string, conn Conn) error {
	reply := make(chan error, 1)
	if err := r.post(ctx, joinEvent{peerID: peerID, nickname: nickname, conn: conn, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleFrame hands a raw inbound frame to the room. Returns
// domain.ErrRoomClosed once the room has shut down.
func (r *Room) HandleFrame(ctx context.Context, peerID string, data []byte) error {
	return r.post(ctx, frameEvent{peerID: peerID, data: data})
}

// Leave runs the close path for a peer. Closing an unknown or already
// removed peer is a no-op. A non-nil conn restricts the close to the
// session still bound to that handle, so a handler whose peer already
// reconnected cannot tear down the replacement session.
func (r *Room) Leave(peerID string, conn Conn) {
	_ = r.post(context.Background(), leaveEvent{peerID: peerID, conn: conn})
}

// Snapshot returns the presence directory as of the moment the room
// processes the request.
func (r *Room) Snapshot(ctx context.Context) (Info, error) {
	reply := make(chan Info, 1)
	if err := r.post(ctx, infoEvent{reply: reply}); err != nil {
		return Info{}, err
	}
	select {
	case info := <-reply:
		return info, nil
	case <-ctx.Done():
		return Info{}, ctx.Err()
	}
}

func (r *Room) run() {
	ticker := time.NewTicker(r.opts.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case ev := <-r.events:
			r.dispatch(ev)
			// A fresh room waits for its first registration; after that,
			// emptiness means shutdown.
			if !r.seated || len(r.sessions) > 0 {
				continue
			}
		case <-ticker.C:
			r.sweep()
			// Also reclaims a room whose only join was abandoned.
			if len(r.sessions) > 0 {
				continue
			}
		}

		// Release the registry slot, then stop. Joins racing the shutdown
		// get ErrRoomClosed and retry via the registry.
		if r.onEmpty != nil {
			r.onEmpty(r)
		}
		close(r.done)
		r.log.Info("room closed")
		return
	}
}

func (r *Room) dispatch(ev event) {
	switch e := ev.(type) {
	case joinEvent:
		r.handleJoin(e)
	case frameEvent:
		r.handleFrame(e.peerID, e.data)
	case leaveEvent:
		r.handleLeave(e)
	case infoEvent:
		e.reply <- r.info()
	}
}

func (r *Room) handleJoin(e joinEvent) {
	now := time.Now()

	// A reconnect under the same peerID replaces the stale session; the old
	// connection goes through the normal close path first.
	if _, ok := r.sessions[e.peerID]; ok {
		r.closePeer(e.peerID)
	}

	s := &session{
		Session: domain.Session{
			PeerID:       e.peerID,
			RoomID:       r.id,
			Nickname:     e.nickname,
			ConnectedAt:  now,
			LastActivity: now,
			Alive:        true,
		},
		conn: e.conn,
	}
	r.sessions[e.peerID] = s
	r.presence[e.peerID] = domain.PresenceEntry{
		PeerID:      e.peerID,
		RoomID:      r.id,
		Nickname:    e.nickname,
		Role:        domain.RoleOf(e.peerID),
		ConnectedAt: now,
	}
	r.count.Store(int64(len(r.sessions)))
	r.seated = true
	activeSessions.Inc()

	r.log.Info("peer connected",
		slog.String("peer", e.peerID),
		slog.String("nickname", e.nickname),
		slog.Int("sessions", len(r.sessions)))

	others := make([]string, 0, len(r.sessions)-1)
	for id := range r.sessions {
		if id != e.peerID {
			others = append(others, id)
		}
	}
	sort.Strings(others)

	if err := s.conn.Send(ConnectedFrame{
		Type:        TypeConnected,
		PeerID:      e.peerID,
		RoomID:      r.id,
		Nickname:    e.nickname,
		UsersInRoom: others,
	}); err != nil {
		r.log.Warn("connected ack failed", slog.String("peer", e.peerID), slog.Any("err", err))
		r.closePeer(e.peerID)
		e.reply <- nil
		return
	}

	r.broadcast(UserJoinedFrame{
		Type:     TypeUserJoined,
		PeerID:   e.peerID,
		Nickname: e.nickname,
		RoomID:   r.id,
	}, e.peerID)

	e.reply <- nil
}

func (r *Room) handleLeave(e leaveEvent) {
	if e.conn != nil {
		s, ok := r.sessions[e.peerID]
		if !ok || s.conn != e.conn {
			return
		}
	}
	r.closePeer(e.peerID)
}

func (r *Room) handleFrame(peerID string, data []byte) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		// Malformed frames are dropped; the session stays open.
		r.log.Debug("malformed frame", slog.String("peer", peerID), slog.Any("err", err))
		framesTotal.WithLabelValues("malformed").Inc()
		return
	}

	switch in.Type {
	case TypeChatMessage:
		framesTotal.WithLabelValues(TypeChatMessage).Inc()
		r.handleChat(peerID, in)
	case TypePing:
		framesTotal.WithLabelValues(TypePing).Inc()
		r.handlePing(peerID)
	case TypeGetUsers:
		framesTotal.WithLabelValues(TypeGetUsers).Inc()
		r.handleGetUsers(peerID)
	default:
		framesTotal.WithLabelValues("unknown").Inc()
		r.log.Debug("unknown frame type",
			slog.String("peer", peerID), slog.String("type", in.Type))
	}
}

func (r *Room) handleChat(peerID string, in Inbound) {
	s, ok := r.sessions[peerID]
	if !ok || !s.Alive {
		// Race with a closing connection; nothing to report back.
		r.log.Debug("chat from inactive session", slog.String("peer", peerID))
		return
	}
	r.touch(s)

	from := in.From
	if from == "" {
		from = s.Nickname
	}
	ts := in.Timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}

	sent := r.broadcast(ChatFrame{
		Type:       TypeChatMessage,
		From:       from,
		FromPeerID: peerID,
		Text:       in.Text,
		Timestamp:  ts,
		RoomID:     r.id,
	}, peerID)

	r.log.Debug("chat relayed",
		slog.String("peer", peerID),
		slog.Int("text_len", len(in.Text)),
		slog.Int("recipients", sent))
}

func (r *Room) handlePing(peerID string) {
	s, ok := r.sessions[peerID]
	if !ok || !s.Alive {
		return
	}
	r.touch(s)

	if err := s.conn.Send(PongFrame{
		Type:        TypePong,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		UsersInRoom: r.peerIDs(),
		RoomID:      r.id,
	}); err != nil {
		r.closePeer(peerID)
	}
}

func (r *Room) handleGetUsers(peerID string) {
	s, ok := r.sessions[peerID]
	if !ok || !s.Alive {
		return
	}
	r.touch(s)

	if err := s.conn.Send(UserListFrame{
		Type:   TypeUserList,
		Users:  r.presenceList(),
		RoomID: r.id,
	}); err != nil {
		r.closePeer(peerID)
	}
}

// broadcast fans frame out to every live session except excludePeerID.
// A failed delivery marks that recipient for the close path but never
// aborts the loop; returns the number of successful sends.
func (r *Room) broadcast(frame any, excludePeerID string) int {
	sent := 0
	var failed []string
	for id, s := range r.sessions {
		if id == excludePeerID || !s.Alive {
			continue
		}
		if err := s.conn.Send(frame); err != nil {
			r.log.Warn("broadcast delivery failed",
				slog.String("peer", id), slog.Any("err", err))
			broadcastFailures.Inc()
			failed = append(failed, id)
			continue
		}
		sent++
	}
	for _, id := range failed {
		r.closePeer(id)
	}
	return sent
}

// closePeer removes the session and presence entry and tells everyone left.
// Safe to call repeatedly for the same peer.
func (r *Room) closePeer(peerID string) {
	s, ok := r.sessions[peerID]
	if !ok {
		return
	}
	nickname := s.Nickname

	delete(r.sessions, peerID)
	delete(r.presence, peerID)
	r.count.Store(int64(len(r.sessions)))
	activeSessions.Dec()
	_ = s.conn.Close()

	r.log.Info("peer disconnected",
		slog.String("peer", peerID),
		slog.Int("sessions", len(r.sessions)))

	r.broadcast(UserLeftFrame{
		Type:     TypeUserLeft,
		PeerID:   peerID,
		Nickname: nickname,
		RoomID:   r.id,
	}, "")
}

// sweep reclaims sessions older than the idle threshold that stayed silent
// through the previous sweep window, then flags the currently silent ones.
// A session therefore has to miss two consecutive windows to be removed.
func (r *Room) sweep() {
	now := time.Now()
	var reclaim []string
	for id, s := range r.sessions {
		switch {
		case now.Sub(s.ConnectedAt) > r.opts.IdleAfter && !s.Alive:
			reclaim = append(reclaim, id)
		case now.Sub(s.LastActivity) > r.opts.IdleAfter:
			s.Alive = false
		}
	}
	for _, id := range reclaim {
		r.log.Info("sweeping idle session", slog.String("peer", id))
		sessionsSwept.Inc()
		r.closePeer(id)
	}
}

func (r *Room) touch(s *session) {
	s.LastActivity = time.Now()
	s.Alive = true
}

func (r *Room) peerIDs() []string {
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Room) presenceList() []domain.PresenceEntry {
	list := make([]domain.PresenceEntry, 0, len(r.presence))
	for _, p := range r.presence {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ConnectedAt.Equal(list[j].ConnectedAt) {
			return list[i].ConnectedAt.Before(list[j].ConnectedAt)
		}
		return list[i].PeerID < list[j].PeerID
	})
	return list
}

func (r *Room) info() Info {
	return Info{
		RoomID:           r.id,
		ParticipantCount: len(r.sessions),
		Participants:     r.presenceList(),
		SnapshotTakenAt:  time.Now().UTC().Format(time.RFC3339),
	}
}
