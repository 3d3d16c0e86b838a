package cx

import "github.com/clearwater-ims/homestead/internal/diameter"

// BuildSAR constructs a Server-Assignment-Request carrying sat, for the
// IMS-subscription/reg-state orchestrator (C7).
func BuildSAR(stack diameter.LocalIdentity, destRealm, impi, impu string, sat ServerAssignmentType) diameter.Message {
	avps := diameter.AVPs{
		"Public-Identity":         impu,
		"Destination-Realm":       destRealm,
		"Server-Assignment-Type":  int(sat),
	}
	if impi != "" {
		avps["User-Name"] = impi
	}
	origin(avps, stack)
	return diameter.Message{
		CommandCode:   CommandCodeSAR,
		ApplicationID: ApplicationIDCx,
		Request:       true,
		Avps:          avps,
	}
}

// SAAResult is the decoded content of a Server-Assignment-Answer.
type SAAResult struct {
	ResultCode        int
	UserData          string
	ChargingAddresses string
}

// ParseSAA extracts the user profile XML and charging addresses from a
// Server-Assignment-Answer.
func ParseSAA(m diameter.Message) SAAResult {
	res := SAAResult{ResultCode: ResultCode(m)}
	res.UserData, _ = m.Avps["User-Data"].(string)

	if addrs, ok := m.Avps["Charging-Information"].(diameter.AVPs); ok {
		if v, ok := addrs["Primary-Charging-Collection-Function-Name"].(string); ok {
			res.ChargingAddresses = v
		}
	}
	return res
}
