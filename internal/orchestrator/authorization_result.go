package orchestrator

import (
	stderrors "github.com/clearwater-ims/homestead/internal/errors"
	"github.com/clearwater-ims/homestead/internal/cx"
)

// authorizationBody is the HTTP response body shared by C5 and C6 on success.
type authorizationBody struct {
	ResultCode int                    `json:"result-code"`
	SCSCF      string                 `json:"scscf,omitempty"`
	Capabilities *cx.ServerCapabilities `json:"capabilities,omitempty"`
}

// mapAuthorizationResult renders a UAA/LIA into an Outcome, per the
// result-code table of spec.md §4.5 (shared verbatim by §4.6, with
// DIAMETER_UNREGISTERED_SERVICE treated as non-error by callers that pass
// unregisteredServiceIsSuccess=true).
func mapAuthorizationResult(res cx.AuthorizationResult, unregisteredServiceIsSuccess bool) Outcome {
	switch res.ResultCode {
	// DiameterFirstRegistration shares DiameterSuccess's value (2001), so
	// the first case covers it.
	case cx.DiameterSuccess, cx.DiameterSubsequentRegistration:
		return ok(200, authorizationResponseBody(res))
	case cx.DiameterUnregisteredService:
		if unregisteredServiceIsSuccess {
			return ok(200, authorizationResponseBody(res))
		}
		return errOutcome(stderrors.ErrCodeUpstream, "unregistered service")
	case cx.DiameterErrorUserUnknown, cx.DiameterErrorIdentitiesDontMatch:
		return errOutcome(stderrors.ErrCodeNotFound, "user unknown or identities don't match")
	case cx.DiameterAuthorizationRejected, cx.DiameterErrorRoamingNotAllowed:
		return errOutcome(stderrors.ErrCodeDenied, "authorization rejected or roaming not allowed")
	case cx.DiameterTooBusy:
		return errOutcome(stderrors.ErrCodeBusy, "HSS too busy")
	default:
		return errOutcome(stderrors.ErrCodeUpstream, "unexpected Diameter result code")
	}
}

func authorizationResponseBody(res cx.AuthorizationResult) authorizationBody {
	body := authorizationBody{ResultCode: res.ResultCode}
	if res.ServerNamePresent {
		body.SCSCF = res.ServerName
		return body
	}
	body.Capabilities = &res.ServerCapabilities
	return body
}
