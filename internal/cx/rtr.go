package cx

import "github.com/clearwater-ims/homestead/internal/diameter"

// RTRContent is the decoded content of an inbound Registration-Termination-
// Request relevant to the HSS-push orchestrator (C8).
type RTRContent struct {
	Reason          DeregistrationReason
	ReasonRecognized bool

	PrimaryIMPI     string
	AssociatedIMPIs []string
	IMPUs           []string
}

// ParseRTR extracts the deregistration reason, IMPI set and optional IMPUs
// from an inbound Registration-Termination-Request.
func ParseRTR(m diameter.Message) RTRContent {
	var content RTRContent

	content.PrimaryIMPI, _ = m.Avps["User-Name"].(string)

	if raw, ok := m.Avps["Deregistration-Reason"].(diameter.AVPs); ok {
		if code, ok := raw["Reason-Code"].(int); ok {
			reason := DeregistrationReason(code)
			switch reason {
			case ReasonPermanentTermination, ReasonRemoveSCSCF, ReasonServerChange, ReasonNewServerAssigned:
				content.Reason = reason
				content.ReasonRecognized = true
			}
		}
	}

	if assoc, ok := m.Avps["Associated-Identities"].([]string); ok {
		content.AssociatedIMPIs = assoc
	}
	if impus, ok := m.Avps["Public-Identity"].([]string); ok {
		content.IMPUs = impus
	}

	return content
}

// BuildRTA constructs the Registration-Termination-Answer reply.
// resultCode should be DiameterSuccess or DiameterReqFailure.
func BuildRTA(stack diameter.LocalIdentity, sessionID string, resultCode int) diameter.Message {
	avps := diameter.AVPs{"Result-Code": resultCode}
	origin(avps, stack)
	return diameter.Message{
		CommandCode:   CommandCodeRTR,
		ApplicationID: ApplicationIDCx,
		Request:       false,
		SessionID:     sessionID,
		Avps:          avps,
	}
}
