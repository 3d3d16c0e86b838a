package orchestrator

import (
	"context"

	"github.com/clearwater-ims/homestead/internal/cache"
	"github.com/clearwater-ims/homestead/internal/cx"
	"github.com/clearwater-ims/homestead/internal/diameter"
)

// RegistrationTerminationHandler answers inbound Registration-Termination-
// Requests (C8 §4.8.2).
type RegistrationTerminationHandler struct {
	Deps
}

// NewRegistrationTerminationHandler builds a RegistrationTerminationHandler.
func NewRegistrationTerminationHandler(deps Deps) *RegistrationTerminationHandler {
	return &RegistrationTerminationHandler{Deps: deps}
}

// Handle parses the inbound RTR, notifies the downstream SIP router, and
// tears down the affected cache state, building the RTA. Register it with
// the Diameter stack via RegisterRequestHandler(cx.CommandCodeRTR, h.Handle).
func (h *RegistrationTerminationHandler) Handle(ctx context.Context, req diameter.Message) diameter.Message {
	rtr := cx.ParseRTR(req)
	if !rtr.ReasonRecognized {
		return cx.BuildRTA(h.Tx, req.SessionID, cx.DiameterReqFailure)
	}

	impis := dedupeStrings(append([]string{rtr.PrimaryIMPI}, rtr.AssociatedIMPIs...))
	impus := dedupeStrings(rtr.IMPUs)
	if rtr.Reason.DiscardsRequestIMPUs() {
		impus = nil
	}

	if len(impus) == 0 {
		discovered, result := h.Cache.GetAssociatedPrimaryPublicIDs(ctx, impis)
		if result != cache.ResultOK && result != cache.ResultNotFound {
			h.Logger.Warn().Str("primary_impi", rtr.PrimaryIMPI).Msg("registration_termination.lookup_impus_failed")
		}
		impus = dedupeStrings(discovered)
	}

	if len(impus) == 0 {
		// Nothing to deregister: no request-supplied IMPUs and the cache
		// has no default IMPU for any of these IMPIs either.
		return cx.BuildRTA(h.Tx, req.SessionID, cx.DiameterSuccess)
	}

	var allIMPUs []string
	seen := make(map[string]struct{})
	for _, impu := range impus {
		sub, result := h.Cache.GetIMSSubscription(ctx, impu)
		if result != cache.ResultOK {
			continue
		}
		for _, member := range extractIMPUs(sub.XML) {
			if _, ok := seen[member]; !ok {
				seen[member] = struct{}{}
				allIMPUs = append(allIMPUs, member)
			}
		}
		if rtr.Reason == cx.ReasonServerChange || rtr.Reason == cx.ReasonNewServerAssigned {
			impis = dedupeStrings(append(impis, sub.AssociatedImpis...))
		}
	}
	if len(allIMPUs) == 0 {
		allIMPUs = impus
	}

	var notifyErr error
	switch rtr.Reason {
	case cx.ReasonPermanentTermination:
		notifyErr = h.Sprout.Deregister(ctx, allIMPUs, impis, true)
	case cx.ReasonRemoveSCSCF, cx.ReasonServerChange:
		notifyErr = h.Sprout.Deregister(ctx, allIMPUs, nil, true)
	case cx.ReasonNewServerAssigned:
		notifyErr = h.Sprout.Deregister(ctx, allIMPUs, nil, false)
	}

	if result := h.Cache.DissociateImplicitRegistrationSetFromImpi(ctx, allIMPUs, impis); result != cache.ResultOK {
		h.Logger.Warn().Strs("impus", allIMPUs).Msg("registration_termination.dissociate_failed")
	}
	if rtr.Reason == cx.ReasonServerChange || rtr.Reason == cx.ReasonNewServerAssigned {
		if result := h.Cache.DeleteIMPIMapping(ctx, impis); result != cache.ResultOK {
			h.Logger.Warn().Strs("impis", impis).Msg("registration_termination.delete_impi_mapping_failed")
		}
	}

	resultCode := cx.DiameterSuccess
	if notifyErr != nil {
		resultCode = cx.DiameterUnableToComply
	}
	return cx.BuildRTA(h.Tx, req.SessionID, resultCode)
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
