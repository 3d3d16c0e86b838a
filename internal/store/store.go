// Package store implements the backing persistence for Homestead's cache
// tables: authentication vectors, IMS subscription/registration-state
// documents, and the IMPI-to-default-IMPU reverse index. It is the
// lowest layer beneath the cache request layer (internal/cache).
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup finds no matching row.
var ErrNotFound = errors.New("store: not found")

// RegState mirrors spec.md's registration-state enum.
type RegState string

const (
	RegStateRegistered    RegState = "REGISTERED"
	RegStateUnregistered  RegState = "UNREGISTERED"
	RegStateNotRegistered RegState = "NOT_REGISTERED"
	RegStateUnchanged     RegState = "UNCHANGED"
)

// AVScheme identifies the tagged variant carried by an AV.
type AVScheme string

const (
	SchemeDigest AVScheme = "digest"
	SchemeAKA    AVScheme = "aka"
)

// AV is the tagged authentication-vector variant of spec.md §3. Exactly one
// of the Digest/AKA field groups is populated, selected by Scheme.
type AV struct {
	Scheme AVScheme

	// Digest AV fields.
	HA1             string
	Realm           string
	QOP             string
	PreferredScheme string

	// AKA AV fields (base64-encoded by the caller; stored opaquely).
	Challenge    string
	Response     string
	CryptKey     string
	IntegrityKey string
}

// IMSSubscription is the impu_subscription row shape of spec.md §3.
type IMSSubscription struct {
	XML               string
	RegState          RegState
	AssociatedImpis   []string
	ChargingAddresses string
	ExpiresAt         time.Time
}

// Store is the persistence contract backing the cache request layer. All
// write methods take an explicit last-write-wins timestamp (microseconds,
// monotonically non-decreasing per internal/cache's Cache.GenerateTimestamp)
// so concurrent writers converge deterministically.
type Store interface {
	// GetAV returns the stored AV for impi, or ErrNotFound.
	GetAV(ctx context.Context, impi string) (AV, error)
	// PutAV upserts the AV for impi if ts is not older than the stored value.
	PutAV(ctx context.Context, impi string, av AV, ts int64, ttl time.Duration) error

	// GetIMSSubscription returns the subscription row for impu, or ErrNotFound.
	GetIMSSubscription(ctx context.Context, impu string) (IMSSubscription, error)
	// PutIMSSubscription writes an identical row for every IMPU in impus,
	// recording associatedImpis on each row and mapping each of them to the
	// default IMPU (impus[0]) in impi_impu_mapping. If regState is
	// RegStateUnchanged, the prior reg_state on each row (if any) is
	// preserved rather than overwritten.
	PutIMSSubscription(ctx context.Context, impus []string, associatedImpis []string, xml string, chargingAddresses string, regState RegState, ts int64, ttl time.Duration) error

	// GetAssociatedPrimaryPublicIDs returns the flat union of default IMPUs
	// mapped to by the given IMPIs.
	GetAssociatedPrimaryPublicIDs(ctx context.Context, impis []string) ([]string, error)
	// DissociateImplicitRegistrationSetFromImpi clears the impu_subscription
	// rows for impus and any impi_impu_mapping rows linking them to impis.
	DissociateImplicitRegistrationSetFromImpi(ctx context.Context, impus []string, impis []string, ts int64) error
	// DeleteIMPIMapping removes all impi_impu_mapping rows for the given IMPIs.
	DeleteIMPIMapping(ctx context.Context, impis []string, ts int64) error

	// Close releases the store's underlying connection(s).
	Close() error
}
