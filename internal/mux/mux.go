package mux

import (
	"net/http"
	"strings"

	gmux "github.com/gorilla/mux"
	"pokertable-server/pkg/room"
)

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	config  config
	version string
	pitBoss *room.PitBoss
}

type config struct {
	// allowedOrigins are the origins permitted to open a websocket
	// An empty list or "*" allows every origin
	allowedOrigins []string
}

// NewMux returns a new HTTP mux
func NewMux(version string, pitBoss *room.PitBoss, allowedOrigins ...string) *Mux {
	this := &Mux{
		Router:  gmux.NewRouter(),
		version: version,
		pitBoss: pitBoss,
		config: config{
			allowedOrigins: allowedOrigins,
		},
	}

	r := this.Router
	r.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())
	r.Methods(http.MethodGet).Path("/table").Handler(this.getTable())
	r.Methods(http.MethodGet).Path("/table/{id}").Handler(this.getTableID())
	r.Methods(http.MethodGet).Path("/ws").Handler(this.getWS())

	return this
}

func (m *Mux) checkOrigin(r *http.Request) bool {
	if len(m.config.allowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range m.config.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	return false
}
