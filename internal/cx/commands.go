package cx

import "github.com/clearwater-ims/homestead/internal/diameter"

// Diameter Cx/Dx application and command codes, per 3GPP TS 29.229/29.228.
const (
	ApplicationIDCx uint32 = 16777216

	CommandCodeUAR uint32 = 300
	CommandCodeLIR uint32 = 302
	CommandCodeMAR uint32 = 303
	CommandCodeSAR uint32 = 301
	CommandCodePPR uint32 = 305
	CommandCodeRTR uint32 = 304
)

// Diameter and Cx experimental result codes used by the orchestrators.
const (
	DiameterSuccess               = 2001
	DiameterUnableToComply        = 5012
	DiameterFirstRegistration     = 2001
	DiameterSubsequentRegistration = 2002
	DiameterUnregisteredService   = 2003

	DiameterErrorUserUnknown           = 5001
	DiameterErrorIdentitiesDontMatch   = 5002
	DiameterErrorRoamingNotAllowed     = 5004
	DiameterAuthorizationRejected      = 5003
	DiameterTooBusy                    = 3004
	DiameterReqFailure                 = 5012
)

// origin stamps the Origin-Realm/Origin-Host AVPs shared by every outbound
// request, sourced from the Stack's local identity.
func origin(avps diameter.AVPs, stack diameter.LocalIdentity) {
	avps["Origin-Realm"] = stack.LocalRealm()
	avps["Origin-Host"] = stack.LocalHost()
}

// resultCode returns the Result-Code AVP from an answer, or 0 if absent.
func resultCode(m diameter.Message) int {
	v, ok := m.Avps["Result-Code"]
	if !ok {
		return 0
	}
	code, _ := v.(int)
	return code
}

// ExperimentalResultCode extracts the vendor-specific result code from the
// grouped Experimental-Result AVP, separate from Result-Code, per spec.md
// §4.3. Returns (code, true) if the AVP was present.
func ExperimentalResultCode(m diameter.Message) (int, bool) {
	v, ok := m.Avps["Experimental-Result"]
	if !ok {
		return 0, false
	}
	group, ok := v.(diameter.AVPs)
	if !ok {
		return 0, false
	}
	code, ok := group["Experimental-Result-Code"].(int)
	return code, ok
}

// ResultCode returns the effective result code for m: Result-Code if
// present, otherwise the experimental result code, otherwise 0.
func ResultCode(m diameter.Message) int {
	if code := resultCode(m); code != 0 {
		return code
	}
	if code, ok := ExperimentalResultCode(m); ok {
		return code
	}
	return 0
}
