// Package cx provides typed builders and getters for the Cx reference
// point commands defined in 3GPP TS 29.229: MAR/MAA, UAR/UAA, LIR/LIA,
// SAR/SAA, PPR/PPA, RTR/RTA. It sits above internal/diameter's
// request/answer correlation and below the per-request orchestrators.
package cx

// ServerAssignmentType is the SAT AVP value sent on a Server-Assignment-Request.
type ServerAssignmentType int

const (
	SATNoAssignment ServerAssignmentType = 0
	SATRegistration ServerAssignmentType = 1
	SATReRegistration ServerAssignmentType = 2
	SATUnregisteredUser ServerAssignmentType = 3
	SATTimeoutDeregistration ServerAssignmentType = 4
	SATUserDeregistration ServerAssignmentType = 5
	// SATTimeoutDeregistrationStoreServerName and
	// SATUserDeregistrationStoreServerName are part of the TS 29.229 enum
	// but no (verb, type) combination in the HTTP surface maps to them and
	// no orchestrator branch handles them.
	SATTimeoutDeregistrationStoreServerName ServerAssignmentType = 6
	SATUserDeregistrationStoreServerName    ServerAssignmentType = 7
	SATAdministrativeDeregistration         ServerAssignmentType = 8
	SATAuthenticationFailure                ServerAssignmentType = 9
	SATAuthenticationTimeout                ServerAssignmentType = 10
)

// CacheLookupFirst reports whether the orchestrator should consult the
// cache before emitting a SAR for this SAT. SATRegistration is included
// despite reading as "no" in the decision table's per-row listing: the
// upgrade to SATReRegistration on a REGISTERED hit (the algorithm text
// below that table) is only reachable if the initial registration SAT
// also triggers the lookup.
func (t ServerAssignmentType) CacheLookupFirst() bool {
	switch t {
	case SATNoAssignment, SATRegistration, SATReRegistration, SATUnregisteredUser:
		return true
	default:
		return false
	}
}

// Deregistration reports whether a successful SAA for this SAT implies
// tearing down cache state for the affected IRS.
func (t ServerAssignmentType) Deregistration() bool {
	switch t {
	case SATUserDeregistration, SATTimeoutDeregistration,
		SATAdministrativeDeregistration, SATAuthenticationFailure,
		SATAuthenticationTimeout:
		return true
	default:
		return false
	}
}

// Final reports whether this dereg SAT is one of the two "final" kinds
// that also drop the IMPI→IMPU reverse mapping, not just the subscription.
func (t ServerAssignmentType) Final() bool {
	return t == SATUserDeregistration || t == SATAdministrativeDeregistration
}

// String renders the SAT using the wire/3GPP name, for logging.
func (t ServerAssignmentType) String() string {
	switch t {
	case SATNoAssignment:
		return "NO_ASSIGNMENT"
	case SATRegistration:
		return "REGISTRATION"
	case SATReRegistration:
		return "RE_REGISTRATION"
	case SATUnregisteredUser:
		return "UNREGISTERED_USER"
	case SATTimeoutDeregistration:
		return "TIMEOUT_DEREGISTRATION"
	case SATUserDeregistration:
		return "USER_DEREGISTRATION"
	case SATTimeoutDeregistrationStoreServerName:
		return "TIMEOUT_DEREGISTRATION_STORE_SERVER_NAME"
	case SATUserDeregistrationStoreServerName:
		return "USER_DEREGISTRATION_STORE_SERVER_NAME"
	case SATAdministrativeDeregistration:
		return "ADMINISTRATIVE_DEREGISTRATION"
	case SATAuthenticationFailure:
		return "AUTHENTICATION_FAILURE"
	case SATAuthenticationTimeout:
		return "AUTHENTICATION_TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// DeregistrationReason is the reason AVP carried on an inbound RTR.
type DeregistrationReason int

const (
	ReasonPermanentTermination DeregistrationReason = 0
	ReasonRemoveSCSCF          DeregistrationReason = 1
	ReasonServerChange         DeregistrationReason = 2
	ReasonNewServerAssigned    DeregistrationReason = 3
)

// DiscardsRequestIMPUs reports whether the reason requires the orchestrator
// to ignore any request-supplied IMPUs in favor of the cache's view.
func (r DeregistrationReason) DiscardsRequestIMPUs() bool {
	return r == ReasonServerChange || r == ReasonNewServerAssigned
}
