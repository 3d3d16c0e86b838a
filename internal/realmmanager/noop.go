package realmmanager

import (
	"context"
	"time"
)

// NoopResolver always resolves to an empty peer set, mirroring the
// teacher's NoopNotifier: the realm manager's control loop still runs and
// emits resolve events, but never connects anywhere until a real DNS/SRV
// resolver is wired in. Floor, not the returned TTL, governs the re-resolve
// cadence in this case.
type NoopResolver struct {
	Floor time.Duration
}

func (r NoopResolver) Resolve(ctx context.Context, realm, hostname string, maxPeers int) ([]Target, time.Duration, error) {
	floor := r.Floor
	if floor <= 0 {
		floor = time.Minute
	}
	return nil, floor, nil
}
