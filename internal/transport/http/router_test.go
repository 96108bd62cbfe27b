package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vanced-support/signaling-service/internal/banlist"
	"github.com/vanced-support/signaling-service/internal/room"
	"github.com/vanced-support/signaling-service/internal/transport/ws"

	"github.com/gorilla/websocket"
)

func newTestStack(t *testing.T, bans *banlist.Checker) *httptest.Server {
	t.Helper()
	if bans == nil {
		bans = banlist.New(nil, nil)
	}
	registry := room.NewRegistry(slog.Default(), room.Options{})
	router := NewRouter(NewHandler(registry), ws.NewServer(registry), bans)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	ts := newTestStack(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	ts := newTestStack(t, nil)

	resp, err := http.Get(ts.URL + "/no/such/path")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestRoomInfoUnknownRoom(t *testing.T) {
	ts := newTestStack(t, nil)

	resp, err := http.Get(ts.URL + "/rooms/nope/room-info")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRoomInfoSnapshot(t *testing.T) {
	ts := newTestStack(t, nil)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?peerID=admin_1&roomID=r1&nickname=Staff"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, _, err := conn.ReadMessage(); err != nil { // connected ack
		t.Fatalf("read ack: %v", err)
	}

	resp, err := http.Get(ts.URL + "/rooms/r1/room-info")
	if err != nil {
		t.Fatalf("room-info: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var info room.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.RoomID != "r1" || info.ParticipantCount != 1 {
		t.Fatalf("bad info: %+v", info)
	}
	if info.SnapshotTakenAt == "" {
		t.Fatal("snapshotTakenAt missing")
	}
	p := info.Participants[0]
	if p.PeerID != "admin_1" || p.Nickname != "Staff" || string(p.Role) != "admin" {
		t.Fatalf("bad presence entry: %+v", p)
	}
}

func TestBannedClientRejectedBeforeUpgrade(t *testing.T) {
	ts := newTestStack(t, banlist.New([]string{"127.0.0.1"}, nil))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?peerID=c1&roomID=r1"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("banned ip should not connect")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}

	var st banlist.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode ban status: %v", err)
	}
	if !st.IsBanned || st.Reason != banlist.ReasonIPBanned {
		t.Fatalf("bad ban status: %+v", st)
	}
}

func TestMetricsExposed(t *testing.T) {
	ts := newTestStack(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
}
