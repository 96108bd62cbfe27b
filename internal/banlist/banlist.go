package banlist

import (
	"net"
	"net/http"
	"strings"

	"github.com/vanced-support/signaling-service/pkg/httputil"
)

const (
	ReasonIPBanned   = "ip_banned"
	ReasonPeerBanned = "peer_banned"
)

type Status struct {
	IsBanned bool   `json:"isBanned"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Checker answers ban-status queries against fixed lists. The lists are
// loaded once at startup; updates require a restart.
type Checker struct {
	ips     map[string]struct{}
	peerIDs map[string]struct{}
}

func New(ips, peerIDs []string) *Checker {
	c := &Checker{
		ips:     make(map[string]struct{}, len(ips)),
		peerIDs: make(map[string]struct{}, len(peerIDs)),
	}
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			c.ips[ip] = struct{}{}
		}
	}
	for _, id := range peerIDs {
		if id = strings.TrimSpace(id); id != "" {
			c.peerIDs[id] = struct{}{}
		}
	}
	return c
}

// Check reports whether either the client address or the peer id is banned.
func (c *Checker) Check(clientAddr, peerID string) Status {
	if _, ok := c.ips[strings.TrimSpace(clientAddr)]; ok {
		return Status{IsBanned: true, Reason: ReasonIPBanned, Message: "This device is not allowed."}
	}
	if _, ok := c.peerIDs[strings.TrimSpace(peerID)]; ok {
		return Status{IsBanned: true, Reason: ReasonPeerBanned, Message: "This account is not allowed."}
	}
	return Status{}
}

// Middleware rejects banned clients before the request reaches the room.
func (c *Checker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := r.RemoteAddr
		if host, _, err := net.SplitHostPort(addr); err == nil {
			addr = host
		}
		if st := c.Check(addr, r.URL.Query().Get("peerID")); st.IsBanned {
			httputil.JSON(w, http.StatusForbidden, st)
			return
		}
		next.ServeHTTP(w, r)
	})
}
