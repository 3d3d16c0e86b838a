package orchestrator

import (
	"context"

	"github.com/clearwater-ims/homestead/internal/cache"
	"github.com/clearwater-ims/homestead/internal/cx"
	"github.com/clearwater-ims/homestead/internal/diameter"
	stderrors "github.com/clearwater-ims/homestead/internal/errors"
	"github.com/clearwater-ims/homestead/internal/store"
)

// RegDataHandler implements GET/PUT/DELETE /impu/<impu>/reg-data (C7), the
// ServerAssignmentType decision matrix of spec.md §4.7.
type RegDataHandler struct {
	Deps
}

// NewRegDataHandler builds a RegDataHandler.
func NewRegDataHandler(deps Deps) *RegDataHandler {
	return &RegDataHandler{Deps: deps}
}

// regDataBody is the reg-data object returned on the GET path and echoed
// (with empty fields) on writes, per spec.md §6.
type regDataBody struct {
	RegState          string `json:"regstate,omitempty"`
	XML               string `json:"xml,omitempty"`
	ChargingAddresses string `json:"charging-addresses,omitempty"`
}

// reqTypeToSAT maps the HTTP reqtype wire value to its initial SAT, before
// any cache-driven upgrade, per spec.md §4.7's decision table.
func reqTypeToSAT(verb, reqType string) (cx.ServerAssignmentType, bool) {
	switch verb {
	case "GET":
		return cx.SATNoAssignment, true
	case "PUT":
		switch reqType {
		case "reg":
			return cx.SATRegistration, true
		case "call":
			return cx.SATUnregisteredUser, true
		}
	case "DELETE":
		switch reqType {
		case "dereg-user":
			return cx.SATUserDeregistration, true
		case "dereg-timeout":
			return cx.SATTimeoutDeregistration, true
		case "dereg-admin":
			return cx.SATAdministrativeDeregistration, true
		case "dereg-auth-failed":
			return cx.SATAuthenticationFailure, true
		case "dereg-auth-timeout":
			return cx.SATAuthenticationTimeout, true
		}
	}
	return 0, false
}

// Handle runs the IMS-subscription/reg-state flow of spec.md §4.7.
func (h *RegDataHandler) Handle(ctx context.Context, verb, reqType, impi, impu string, associatedImpis []string) Outcome {
	sat, recognized := reqTypeToSAT(verb, reqType)
	if !recognized {
		return errOutcome(stderrors.ErrCodeInvalid, "unrecognized verb/reqtype combination")
	}

	var existing store.IMSSubscription
	var hadExisting bool

	if sat.CacheLookupFirst() {
		sub, result := h.Cache.GetIMSSubscription(ctx, impu)
		switch result {
		case cache.ResultOK:
			existing = sub
			hadExisting = true
			if sub.RegState == store.RegStateRegistered && sat == cx.SATRegistration {
				sat = cx.SATReRegistration
			}
		case cache.ResultNotFound:
			if sat == cx.SATNoAssignment && verb == "GET" {
				sat = cx.SATUnregisteredUser
			}
		default:
			return cacheErrOutcome(result)
		}
	}

	// A pure cache-hit GET needs no HSS round trip.
	if verb == "GET" && sat == cx.SATNoAssignment && hadExisting {
		return ok(200, regDataBody{
			RegState:          string(existing.RegState),
			XML:               existing.XML,
			ChargingAddresses: existing.ChargingAddresses,
		})
	}

	req := cx.BuildSAR(h.Tx, h.Diameter.DestRealm, impi, impu, sat)
	answer, err := h.Tx.SendRequest(ctx, diameter.BucketHSSSubscription, "SAR", h.Diameter.DestRealm, h.Diameter.DestHost, req)
	if err != nil {
		return diameterErrOutcome(err)
	}

	saa := cx.ParseSAA(answer)
	if saa.ResultCode != cx.DiameterSuccess {
		return mapAuthorizationResult(cx.AuthorizationResult{ResultCode: saa.ResultCode}, false)
	}

	if sat.Deregistration() {
		return h.handleDeregistration(ctx, sat, impu, impi, associatedImpis)
	}
	return h.handleAssignment(ctx, sat, verb, impu, associatedImpis, saa)
}

func (h *RegDataHandler) handleAssignment(ctx context.Context, sat cx.ServerAssignmentType, verb, impu string, associatedImpis []string, saa cx.SAAResult) Outcome {
	impus := extractIMPUs(saa.UserData)
	if len(impus) == 0 {
		impus = []string{impu}
	}

	newState := store.RegStateUnchanged
	switch sat {
	case cx.SATRegistration, cx.SATReRegistration:
		newState = store.RegStateRegistered
	case cx.SATUnregisteredUser:
		newState = store.RegStateUnregistered
	}

	if result := h.Cache.PutIMSSubscription(ctx, impus, associatedImpis, saa.UserData, saa.ChargingAddresses, newState); result != cache.ResultOK {
		return cacheErrOutcome(result)
	}

	if verb != "GET" {
		return ok(200, regDataBody{})
	}
	return ok(200, regDataBody{
		RegState:          string(resolvedRegState(newState)),
		XML:               saa.UserData,
		ChargingAddresses: saa.ChargingAddresses,
	})
}

func resolvedRegState(s store.RegState) store.RegState {
	if s == store.RegStateUnchanged {
		return store.RegStateNotRegistered
	}
	return s
}

func (h *RegDataHandler) handleDeregistration(ctx context.Context, sat cx.ServerAssignmentType, impu, impi string, associatedImpis []string) Outcome {
	impis := associatedImpis
	if impi != "" {
		impis = append([]string{impi}, impis...)
	}

	if result := h.Cache.DissociateImplicitRegistrationSetFromImpi(ctx, []string{impu}, impis); result != cache.ResultOK {
		h.Logger.Warn().Str("impu", impu).Msg("reg_data.dissociate_failed")
	}
	if sat.Final() {
		if result := h.Cache.DeleteIMPIMapping(ctx, impis); result != cache.ResultOK {
			h.Logger.Warn().Strs("impis", impis).Msg("reg_data.delete_impi_mapping_failed")
		}
	}
	return ok(200, regDataBody{})
}
