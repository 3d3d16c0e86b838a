// Package orchestrator implements the per-request and HSS-push handlers
// (C4-C8): the IMPI-AV, registration-status, location-info, IMS-
// subscription/reg-state, push-profile and registration-termination
// orchestrators. Each handler is a short-lived object that consults the
// cache request layer (internal/cache) and, on miss or write path, the Cx
// message layer (internal/cx) over the Diameter transaction layer
// (internal/diameter).
package orchestrator

import (
	"time"

	"github.com/clearwater-ims/homestead/internal/cache"
	"github.com/clearwater-ims/homestead/internal/circuitbreaker"
	"github.com/clearwater-ims/homestead/internal/config"
	"github.com/clearwater-ims/homestead/internal/diameter"
	stderrors "github.com/clearwater-ims/homestead/internal/errors"
	"github.com/clearwater-ims/homestead/internal/sprout"
	"github.com/rs/zerolog"
)

// Deps bundles the collaborators shared by every orchestrator handler.
type Deps struct {
	Cache    *cache.Cache
	Tx       *diameter.Transactor
	Sprout   *sprout.Client
	Breakers *circuitbreaker.Manager
	Diameter config.DiameterConfig
	CacheCfg config.CacheConfig
	Logger   zerolog.Logger
}

// Outcome is the HTTP-facing result of an orchestrator handler: either a
// success with a status and JSON body, or an error classified into the
// five kinds of spec.md §7.
type Outcome struct {
	Status int
	Body   interface{}

	Err     error
	ErrCode stderrors.ErrorCode
	ErrMsg  string
}

func ok(status int, body interface{}) Outcome {
	return Outcome{Status: status, Body: body}
}

func errOutcome(code stderrors.ErrorCode, msg string) Outcome {
	return Outcome{ErrCode: code, ErrMsg: msg, Status: code.HTTPStatus()}
}

// subscriptionTTL is 2×hss_reregistration_time per spec.md §3.
func subscriptionTTL(cfg config.CacheConfig) time.Duration {
	return 2 * cfg.HSSReregistrationTime.Duration
}

// cacheErrOutcome maps a non-OK, non-NotFound cache.Result to an Outcome.
func cacheErrOutcome(result cache.Result) Outcome {
	switch result {
	case cache.ResultInvalidRequest:
		return errOutcome(stderrors.ErrCodeInvalid, "malformed cache request")
	case cache.ResultTimeout, cache.ResultUnavailable:
		return errOutcome(stderrors.ErrCodeBusy, "cache store unavailable")
	default:
		return errOutcome(stderrors.ErrCodeUpstream, "cache store error")
	}
}

// diameterErrOutcome maps a Cx transaction failure (timeout, send error) to
// an Outcome. Protocol-level result codes are mapped by each orchestrator's
// own result-code table, not here.
func diameterErrOutcome(err error) Outcome {
	if err == diameter.ErrTimeout {
		return errOutcome(stderrors.ErrCodeUpstream, "Cx transaction timed out")
	}
	return errOutcome(stderrors.ErrCodeUpstream, "Cx transaction failed: "+err.Error())
}
