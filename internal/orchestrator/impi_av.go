package orchestrator

import (
	"context"

	"github.com/clearwater-ims/homestead/internal/cache"
	"github.com/clearwater-ims/homestead/internal/cx"
	"github.com/clearwater-ims/homestead/internal/diameter"
	stderrors "github.com/clearwater-ims/homestead/internal/errors"
	"github.com/clearwater-ims/homestead/internal/store"
)

// ImpiAVHandler implements GET /impi/<impi>/av (C4).
type ImpiAVHandler struct {
	Deps
}

// NewImpiAVHandler builds an ImpiAVHandler over the shared orchestrator dependencies.
func NewImpiAVHandler(deps Deps) *ImpiAVHandler {
	return &ImpiAVHandler{Deps: deps}
}

// digestAVBody and akaAVBody shape the two AV wire forms on the HTTP surface.
type digestAVBody struct {
	DigestHA1 string `json:"digest_ha1"`
	Realm     string `json:"realm"`
	QOP       string `json:"qop"`
}

type akaAVBody struct {
	Challenge    string `json:"challenge"`
	Response     string `json:"response"`
	CryptKey     string `json:"cryptkey"`
	IntegrityKey string `json:"integritykey"`
}

func avBody(av store.AV) interface{} {
	if av.Scheme == store.SchemeAKA {
		return akaAVBody{
			Challenge:    av.Challenge,
			Response:     av.Response,
			CryptKey:     av.CryptKey,
			IntegrityKey: av.IntegrityKey,
		}
	}
	return digestAVBody{DigestHA1: av.HA1, Realm: av.Realm, QOP: av.QOP}
}

// Handle runs the IMPI-AV flow of spec.md §4.4.
func (h *ImpiAVHandler) Handle(ctx context.Context, impi, impu, scheme string) Outcome {
	if impi == "" {
		return errOutcome(stderrors.ErrCodeInvalid, "impi is required")
	}

	if !h.Diameter.HSSConfigured {
		return ok(200, avBody(h.synthesizeDigestAV()))
	}

	av, result := h.Cache.GetAV(ctx, impi)
	if result == cache.ResultOK {
		return ok(200, avBody(av))
	}
	if result != cache.ResultNotFound {
		return cacheErrOutcome(result)
	}

	if scheme == "" {
		scheme = "SIP Digest"
	}
	req := cx.BuildMAR(h.Tx, h.Diameter.DestRealm, impi, impu, scheme, 1)
	answer, err := h.Tx.SendRequest(ctx, bucketForScheme(scheme), "MAR", h.Diameter.DestRealm, h.Diameter.DestHost, req)
	if err != nil {
		return diameterErrOutcome(err)
	}

	maa := cx.ParseMAA(answer)
	switch maa.ResultCode {
	case cx.DiameterSuccess:
		avScheme := store.SchemeDigest
		if maa.Scheme == "Digest-AKAv1-MD5" {
			avScheme = store.SchemeAKA
		}
		av := store.AV{
			Scheme:       avScheme,
			HA1:          maa.HA1,
			Realm:        maa.Realm,
			QOP:          maa.QOP,
			PreferredScheme: maa.Scheme,
			Challenge:    maa.Challenge,
			Response:     maa.Response,
			CryptKey:     maa.CryptKey,
			IntegrityKey: maa.IntegrityKey,
		}
		if putResult := h.Cache.PutAV(ctx, impi, av); putResult != cache.ResultOK {
			return cacheErrOutcome(putResult)
		}
		return ok(200, avBody(av))
	case cx.DiameterErrorUserUnknown:
		return errOutcome(stderrors.ErrCodeNotFound, "user unknown")
	default:
		return errOutcome(stderrors.ErrCodeUpstream, "MAA returned an error result")
	}
}

// bucketForScheme classifies the MAR by authentication scheme for
// statistics purposes, per spec.md §4.2's {hss, hss_digest,
// hss_subscription, cache} buckets.
func bucketForScheme(scheme string) diameter.Bucket {
	if scheme == "Digest-AKAv1-MD5" {
		return diameter.BucketHSS
	}
	return diameter.BucketHSSDigest
}

// synthesizeDigestAV builds a local digest AV from configuration when the
// HSS is not configured, per spec.md §4.4 step 1.
func (h *ImpiAVHandler) synthesizeDigestAV() store.AV {
	return store.AV{
		Scheme: store.SchemeDigest,
		HA1:    h.Diameter.DigestHA1,
		Realm:  h.Diameter.DigestRealm,
		QOP:    h.Diameter.DigestQoP,
	}
}
