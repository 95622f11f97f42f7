package artifact

import (
	"context"

	"github.com/hubforge/sync-core/internal/types"
)

// MappingLookup is the read-only shape every artifact transform resolves
// identity through: status/priority/type enums, custom-property option
// values, component identity, release identity, and user identity each go
// through it under their own scope (and, for the Hub-global enums, their
// own reserved bucket). Satisfied by *mapping.Resolver.
type MappingLookup interface {
	FindByInternalID(ctx context.Context, scope types.Scope, hubProjectID, internalID int) (*types.Mapping, error)
	FindByExternalKey(ctx context.Context, scope types.Scope, hubProjectID int, externalKey string, onlyPrimary bool) (*types.Mapping, error)
}

// MappingWriter additionally buffers newly discovered mappings — new
// artifacts, auto-provisioned releases — for the engine's next flush
// checkpoint. Satisfied by *mapping.Resolver.
type MappingWriter interface {
	MappingLookup
	AddMappings(mappings ...types.Mapping)
}

// UserLookup resolves a Hub user by Tracker login, used on the pull path.
// Satisfied by *mapping.Resolver.
type UserLookup interface {
	FindUserByExternalKey(ctx context.Context, login string) (*types.Mapping, error)
}

// UserReverseLookup resolves a Tracker login by Hub internal user id, used
// on the push path. Satisfied by *mapping.Resolver.
type UserReverseLookup interface {
	FindUserByInternalID(ctx context.Context, internalID int) (*types.Mapping, error)
}

// Logger is the trace/error sink a transform warns through on non-fatal
// conditions (spec.md §7: MappingMissing, UnknownFieldShape). Satisfied by
// *eventlog.Logger.
type Logger interface {
	Trace(ctx context.Context, entry string) error
	Error(ctx context.Context, entry string) error
}

func enumToHub(ctx context.Context, lookup MappingLookup, bucket int, trackerValue string) (int, bool, error) {
	m, err := lookup.FindByExternalKey(ctx, types.ScopeCustomPropertyValue, bucket, trackerValue, false)
	if err != nil || m == nil {
		return 0, false, err
	}
	return m.InternalID, true, nil
}

func enumToTracker(ctx context.Context, lookup MappingLookup, bucket, hubID int) (string, bool, error) {
	m, err := lookup.FindByInternalID(ctx, types.ScopeCustomPropertyValue, bucket, hubID)
	if err != nil || m == nil {
		return "", false, err
	}
	return m.ExternalKey, true, nil
}
