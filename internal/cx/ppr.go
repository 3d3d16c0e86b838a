package cx

import "github.com/clearwater-ims/homestead/internal/diameter"

// PPRContent is the decoded content of an inbound Push-Profile-Request
// relevant to the HSS-push orchestrator (C8).
type PPRContent struct {
	IMPI string

	HasDigestAV bool
	HA1         string
	Realm       string
	QOP         string

	HasUserData bool
	UserData    string
}

// ParsePPR extracts the IMPI, optional digest AV and optional IMS
// subscription XML from an inbound Push-Profile-Request.
func ParsePPR(m diameter.Message) PPRContent {
	var content PPRContent
	content.IMPI, _ = m.Avps["User-Name"].(string)

	if item, ok := m.Avps["SIP-Auth-Data-Item"].(diameter.AVPs); ok {
		if ha1, ok := item["SIP-Digest-Authenticate"].(string); ok {
			content.HasDigestAV = true
			content.HA1 = ha1
			content.Realm, _ = item["Digest-Realm"].(string)
			content.QOP, _ = item["Digest-QoP"].(string)
		}
	}

	if xml, ok := m.Avps["User-Data"].(string); ok && xml != "" {
		content.HasUserData = true
		content.UserData = xml
	}

	return content
}

// BuildPPA constructs the Push-Profile-Answer reply. resultCode should be
// DiameterSuccess or DiameterUnableToComply.
func BuildPPA(stack diameter.LocalIdentity, sessionID string, resultCode int) diameter.Message {
	avps := diameter.AVPs{"Result-Code": resultCode}
	origin(avps, stack)
	return diameter.Message{
		CommandCode:   CommandCodePPR,
		ApplicationID: ApplicationIDCx,
		Request:       false,
		SessionID:     sessionID,
		Avps:          avps,
	}
}
