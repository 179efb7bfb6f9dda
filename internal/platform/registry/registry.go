package registry

import (
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mednet/mednet/internal/platform/db"
)

// UnknownFacilityError is returned when a facility id carried by an identity
// has no configured store. This indicates a configuration gap, not caller
// error: every facility that can appear in a token must be registered at
// startup.
type UnknownFacilityError struct {
	FacilityID int64
}

func (e *UnknownFacilityError) Error() string {
	return fmt.Sprintf("no facility store registered for facility %d", e.FacilityID)
}

// Registry maps facility ids to their dedicated connection pools. It is built
// once at startup and never mutated, so lookups need no locking.
type Registry struct {
	pools   map[int64]*pgxpool.Pool
	adminID int64
}

// New opens one lazy pool per configured facility store. Pools are created
// without pinging: a facility database that is down at boot shows up later as
// a per-facility failure, not a refusal to start.
func New(stores map[int64]string, adminFacilityID int64, maxConns, minConns int32) (*Registry, error) {
	pools := make(map[int64]*pgxpool.Pool, len(stores))
	for id, dsn := range stores {
		pool, err := db.NewLazyPool(dsn, maxConns, minConns)
		if err != nil {
			for _, p := range pools {
				p.Close()
			}
			return nil, fmt.Errorf("facility %d: %w", id, err)
		}
		pools[id] = pool
		log.Info().Int64("facility_id", id).Msg("Registered facility store")
	}
	return &Registry{pools: pools, adminID: adminFacilityID}, nil
}

// NewWithPools builds a registry from pre-opened pools. Used by tests.
func NewWithPools(pools map[int64]*pgxpool.Pool, adminFacilityID int64) *Registry {
	return &Registry{pools: pools, adminID: adminFacilityID}
}

// Resolve returns the pool for facilityID. The administrative facility has no
// local store; for it Resolve returns ok=false with a nil error so callers can
// branch rather than fail. Any other unregistered id is a configuration error.
func (r *Registry) Resolve(facilityID int64) (*pgxpool.Pool, bool, error) {
	if facilityID == r.adminID {
		return nil, false, nil
	}
	pool, ok := r.pools[facilityID]
	if !ok {
		return nil, false, &UnknownFacilityError{FacilityID: facilityID}
	}
	return pool, true, nil
}

// FacilityIDs returns the ids of all registered facility stores, sorted.
func (r *Registry) FacilityIDs() []int64 {
	ids := make([]int64, 0, len(r.pools))
	for id := range r.pools {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close closes every registered pool.
func (r *Registry) Close() {
	for id, pool := range r.pools {
		pool.Close()
		log.Debug().Int64("facility_id", id).Msg("Closed facility store pool")
	}
}
