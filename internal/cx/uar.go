package cx

import "github.com/clearwater-ims/homestead/internal/diameter"

// UserAuthorizationType mirrors the Cx User-Authorization-Type AVP.
type UserAuthorizationType int

const (
	AuthTypeRegistration    UserAuthorizationType = 0
	AuthTypeDeregistration  UserAuthorizationType = 1
	AuthTypeRegAndCapab     UserAuthorizationType = 2
)

// BuildUAR constructs a User-Authorization-Request for the registration
// status orchestrator (C5).
func BuildUAR(stack diameter.LocalIdentity, destRealm, impi, impu, visitedNetwork string, authType UserAuthorizationType) diameter.Message {
	avps := diameter.AVPs{
		"User-Name":                  impi,
		"Public-Identity":            impu,
		"Destination-Realm":          destRealm,
		"Visited-Network-Identifier": visitedNetwork,
		"User-Authorization-Type":    int(authType),
	}
	origin(avps, stack)
	return diameter.Message{
		CommandCode:   CommandCodeUAR,
		ApplicationID: ApplicationIDCx,
		Request:       true,
		Avps:          avps,
	}
}

// AuthorizationResult is the decoded content of a UAA or LIA common to both
// the registration-status and location-info orchestrators.
type AuthorizationResult struct {
	ResultCode          int
	ServerName          string
	ServerNamePresent   bool
	ServerCapabilities  ServerCapabilities
}

// ServerCapabilities is the Server-Capabilities grouped AVP, used when the
// HSS does not hand back a bound Server-Name.
type ServerCapabilities struct {
	MandatoryCapabilities []int
	OptionalCapabilities  []int
	ServerNames           []string
}

// ParseUAA extracts the result from a User-Authorization-Answer.
func ParseUAA(m diameter.Message) AuthorizationResult {
	return parseAuthorizationAnswer(m)
}

func parseAuthorizationAnswer(m diameter.Message) AuthorizationResult {
	res := AuthorizationResult{ResultCode: ResultCode(m)}

	if name, ok := m.Avps["Server-Name"].(string); ok && name != "" {
		res.ServerName = name
		res.ServerNamePresent = true
		return res
	}

	if caps, ok := m.Avps["Server-Capabilities"].(diameter.AVPs); ok {
		if v, ok := caps["Mandatory-Capability"].([]int); ok {
			res.ServerCapabilities.MandatoryCapabilities = v
		}
		if v, ok := caps["Optional-Capability"].([]int); ok {
			res.ServerCapabilities.OptionalCapabilities = v
		}
		if v, ok := caps["Server-Name"].([]string); ok {
			res.ServerCapabilities.ServerNames = v
		}
	}
	return res
}
