package httpserver

import (
	"net/http"

	"github.com/clearwater-ims/homestead/internal/realmmanager"
	"github.com/clearwater-ims/homestead/pkg/responders"
)

type healthzBody struct {
	Status string `json:"status"`
}

// healthz answers GET /_status/healthz with a liveness check.
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	responders.JSON(w, http.StatusOK, healthzBody{Status: "ok"})
}

type realmStatusBody struct {
	Peers []realmmanager.PeerSnapshot `json:"peers"`
}

// realmStatus answers GET /_status/realms with the realm manager's current
// peer set.
func (s *Server) realmStatus(w http.ResponseWriter, r *http.Request) {
	var peers []realmmanager.PeerSnapshot
	if s.realms != nil {
		peers = s.realms.Snapshot()
	}
	responders.JSON(w, http.StatusOK, realmStatusBody{Peers: peers})
}
