package cx

import "github.com/clearwater-ims/homestead/internal/diameter"

// BuildMAR constructs a Multimedia-Auth-Request for impi, requesting one
// authentication item of the given SIP auth scheme ("SIP Digest" or
// "Digest-AKAv1-MD5").
func BuildMAR(stack diameter.LocalIdentity, destRealm, impi, impu, scheme string, numAuthItems int) diameter.Message {
	avps := diameter.AVPs{
		"User-Name":             impi,
		"Public-Identity":       impu,
		"Destination-Realm":     destRealm,
		"SIP-Number-Auth-Items": numAuthItems,
		"SIP-Auth-Data-Item": diameter.AVPs{
			"SIP-Authentication-Scheme": scheme,
		},
	}
	origin(avps, stack)
	return diameter.Message{
		CommandCode:   CommandCodeMAR,
		ApplicationID: ApplicationIDCx,
		Request:       true,
		Avps:          avps,
	}
}

// MAAResult is the decoded content of a Multimedia-Auth-Answer relevant to
// the IMPI-AV orchestrator.
type MAAResult struct {
	ResultCode int
	Scheme     string
	HA1        string
	Realm      string
	QOP        string
	Challenge  string
	Response   string
	CryptKey   string
	IntegrityKey string
}

// ParseMAA extracts the SIP-Auth-Data-Item from a Multimedia-Auth-Answer.
func ParseMAA(m diameter.Message) MAAResult {
	res := MAAResult{ResultCode: ResultCode(m)}

	item, ok := m.Avps["SIP-Auth-Data-Item"].(diameter.AVPs)
	if !ok {
		return res
	}

	res.Scheme, _ = item["SIP-Authentication-Scheme"].(string)
	res.HA1, _ = item["SIP-Digest-Authenticate"].(string)
	res.Realm, _ = item["Digest-Realm"].(string)
	res.QOP, _ = item["Digest-QoP"].(string)
	res.Challenge, _ = item["SIP-Item-Number"].(string)

	if info, ok := item["SIP-Authenticate"].(diameter.AVPs); ok {
		res.Challenge, _ = info["AKA-RAND"].(string)
		res.Response, _ = info["AKA-AUTN"].(string)
	}
	if info, ok := item["Confidentiality-Key"].(string); ok {
		res.CryptKey = info
	}
	if info, ok := item["Integrity-Key"].(string); ok {
		res.IntegrityKey = info
	}
	return res
}
