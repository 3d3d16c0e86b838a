package cx

import (
	"context"
	"testing"

	"github.com/clearwater-ims/homestead/internal/diameter"
)

type stackStub struct{ realm, host string }

func (s stackStub) LocalRealm() string { return s.realm }
func (s stackStub) LocalHost() string  { return s.host }
func (s stackStub) SendRequest(ctx context.Context, destRealm, destHost string, req diameter.Message, onResponse func(diameter.Message), onTimeout func()) error {
	return nil
}

func TestBuildMAR_SetsMandatoryAVPs(t *testing.T) {
	stack := stackStub{realm: "homestead.example.com", host: "hs1.homestead.example.com"}
	req := BuildMAR(stack, "hss.example.com", "alice@example.com", "sip:alice@example.com", "SIP Digest", 1)

	if req.CommandCode != CommandCodeMAR {
		t.Fatalf("command code = %d, want %d", req.CommandCode, CommandCodeMAR)
	}
	if req.Avps["User-Name"] != "alice@example.com" {
		t.Errorf("User-Name = %v", req.Avps["User-Name"])
	}
	if req.Avps["SIP-Number-Auth-Items"] != 1 {
		t.Errorf("SIP-Number-Auth-Items = %v", req.Avps["SIP-Number-Auth-Items"])
	}
	if req.Avps["Origin-Realm"] != "homestead.example.com" {
		t.Errorf("Origin-Realm = %v", req.Avps["Origin-Realm"])
	}
}

func TestParseMAA_DigestScheme(t *testing.T) {
	m := diameter.Message{
		Avps: diameter.AVPs{
			"Result-Code": DiameterSuccess,
			"SIP-Auth-Data-Item": diameter.AVPs{
				"SIP-Authentication-Scheme": "SIP Digest",
				"SIP-Digest-Authenticate":   "deadbeef",
				"Digest-Realm":              "example.com",
				"Digest-QoP":                "auth",
			},
		},
	}
	res := ParseMAA(m)
	if res.ResultCode != DiameterSuccess {
		t.Fatalf("result code = %d", res.ResultCode)
	}
	if res.HA1 != "deadbeef" || res.Realm != "example.com" || res.QOP != "auth" {
		t.Errorf("unexpected digest fields: %+v", res)
	}
}

func TestResultCode_FallsBackToExperimentalResult(t *testing.T) {
	m := diameter.Message{
		Avps: diameter.AVPs{
			"Experimental-Result": diameter.AVPs{
				"Experimental-Result-Code": DiameterErrorUserUnknown,
			},
		},
	}
	if got := ResultCode(m); got != DiameterErrorUserUnknown {
		t.Fatalf("ResultCode() = %d, want %d", got, DiameterErrorUserUnknown)
	}
}

func TestParseUAA_ServerNamePresent(t *testing.T) {
	m := diameter.Message{
		Avps: diameter.AVPs{
			"Result-Code": DiameterSuccess,
			"Server-Name": "scscf1.example.com",
		},
	}
	res := ParseUAA(m)
	if !res.ServerNamePresent || res.ServerName != "scscf1.example.com" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseUAA_FallsBackToCapabilities(t *testing.T) {
	m := diameter.Message{
		Avps: diameter.AVPs{
			"Result-Code": DiameterFirstRegistration,
			"Server-Capabilities": diameter.AVPs{
				"Server-Name": []string{"scscf1.example.com", "scscf2.example.com"},
			},
		},
	}
	res := ParseUAA(m)
	if res.ServerNamePresent {
		t.Fatal("expected ServerNamePresent = false")
	}
	if len(res.ServerCapabilities.ServerNames) != 2 {
		t.Fatalf("unexpected capabilities: %+v", res.ServerCapabilities)
	}
}
