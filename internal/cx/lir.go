package cx

import "github.com/clearwater-ims/homestead/internal/diameter"

// BuildLIR constructs a Location-Info-Request for the location-info
// orchestrator (C6).
func BuildLIR(stack diameter.LocalIdentity, destRealm, impu string, originating bool, authType UserAuthorizationType) diameter.Message {
	avps := diameter.AVPs{
		"Public-Identity":   impu,
		"Destination-Realm": destRealm,
	}
	if originating {
		avps["Originating-Request"] = 0
	}
	avps["User-Authorization-Type"] = int(authType)
	origin(avps, stack)
	return diameter.Message{
		CommandCode:   CommandCodeLIR,
		ApplicationID: ApplicationIDCx,
		Request:       true,
		Avps:          avps,
	}
}

// ParseLIA extracts the result from a Location-Info-Answer. It shares its
// shape with ParseUAA: Server-Name if bound, else Server-Capabilities.
func ParseLIA(m diameter.Message) AuthorizationResult {
	return parseAuthorizationAnswer(m)
}
