package orchestrator

import (
	"context"

	"github.com/clearwater-ims/homestead/internal/cx"
	"github.com/clearwater-ims/homestead/internal/diameter"
)

// RegistrationStatusHandler implements GET /impi/<impi>/registration-status (C5).
type RegistrationStatusHandler struct {
	Deps
}

// NewRegistrationStatusHandler builds a RegistrationStatusHandler.
func NewRegistrationStatusHandler(deps Deps) *RegistrationStatusHandler {
	return &RegistrationStatusHandler{Deps: deps}
}

// Handle runs the registration-status flow of spec.md §4.5. visitedNetwork
// defaults to the local realm when empty.
func (h *RegistrationStatusHandler) Handle(ctx context.Context, impi, impu, visitedNetwork string, authType cx.UserAuthorizationType) Outcome {
	if visitedNetwork == "" {
		visitedNetwork = h.Tx.LocalRealm()
	}

	req := cx.BuildUAR(h.Tx, h.Diameter.DestRealm, impi, impu, visitedNetwork, authType)
	answer, err := h.Tx.SendRequest(ctx, diameter.BucketHSS, "UAR", h.Diameter.DestRealm, h.Diameter.DestHost, req)
	if err != nil {
		return diameterErrOutcome(err)
	}

	return mapAuthorizationResult(cx.ParseUAA(answer), false)
}
