package orchestrator

import (
	"context"

	"github.com/clearwater-ims/homestead/internal/cx"
	"github.com/clearwater-ims/homestead/internal/diameter"
)

// LocationInfoHandler implements GET /impu/<impu>/location (C6).
type LocationInfoHandler struct {
	Deps
}

// NewLocationInfoHandler builds a LocationInfoHandler.
func NewLocationInfoHandler(deps Deps) *LocationInfoHandler {
	return &LocationInfoHandler{Deps: deps}
}

// Handle runs the location-info flow of spec.md §4.6. If the HSS is not
// configured, the locally configured server name is returned directly
// rather than emitting an LIR, mirroring C4's behavior for MAR.
func (h *LocationInfoHandler) Handle(ctx context.Context, impu string, originating bool, authType cx.UserAuthorizationType) Outcome {
	if !h.Diameter.HSSConfigured {
		return ok(200, authorizationBody{ResultCode: cx.DiameterSuccess, SCSCF: h.Diameter.ServerName})
	}

	req := cx.BuildLIR(h.Tx, h.Diameter.DestRealm, impu, originating, authType)
	answer, err := h.Tx.SendRequest(ctx, diameter.BucketHSS, "LIR", h.Diameter.DestRealm, h.Diameter.DestHost, req)
	if err != nil {
		return diameterErrOutcome(err)
	}

	return mapAuthorizationResult(cx.ParseLIA(answer), true)
}
