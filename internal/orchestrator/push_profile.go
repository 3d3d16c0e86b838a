package orchestrator

import (
	"context"

	"github.com/clearwater-ims/homestead/internal/cache"
	"github.com/clearwater-ims/homestead/internal/cx"
	"github.com/clearwater-ims/homestead/internal/diameter"
	"github.com/clearwater-ims/homestead/internal/store"
)

// PushProfileHandler answers inbound Push-Profile-Requests (C8 §4.8.1).
type PushProfileHandler struct {
	Deps
}

// NewPushProfileHandler builds a PushProfileHandler.
func NewPushProfileHandler(deps Deps) *PushProfileHandler {
	return &PushProfileHandler{Deps: deps}
}

// Handle parses the inbound PPR, applies its AV and/or XML to the cache
// sequentially (AV first), and builds the PPA. Register it with the
// Diameter stack via RegisterRequestHandler(cx.CommandCodePPR, h.Handle).
func (h *PushProfileHandler) Handle(ctx context.Context, req diameter.Message) diameter.Message {
	ppr := cx.ParsePPR(req)
	resultCode := cx.DiameterSuccess

	if ppr.HasDigestAV {
		av := store.AV{
			Scheme: store.SchemeDigest,
			HA1:    ppr.HA1,
			Realm:  ppr.Realm,
			QOP:    ppr.QOP,
		}
		if result := h.Cache.PutAV(ctx, ppr.IMPI, av); result != cache.ResultOK {
			resultCode = cx.DiameterUnableToComply
		}
	}

	if resultCode == cx.DiameterSuccess && ppr.HasUserData {
		impus := extractIMPUs(ppr.UserData)
		if len(impus) > 0 {
			if result := h.Cache.PutIMSSubscription(ctx, impus, []string{ppr.IMPI}, ppr.UserData, "", store.RegStateUnchanged); result != cache.ResultOK {
				resultCode = cx.DiameterUnableToComply
			}
		}
	}

	return cx.BuildPPA(h.Tx, req.SessionID, resultCode)
}
