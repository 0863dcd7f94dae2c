package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrRateLimit       = "E_RATE_LIMIT"

	// Command validation.
	ErrNoPlayer    = "E_NO_PLAYER"
	ErrNoParent    = "E_NO_PARENT"
	ErrNotOwner    = "E_NOT_OWNER"
	ErrTooFar      = "E_TOO_FAR"
	ErrCollision   = "E_COLLISION"
	ErrOutOfBounds = "E_OUT_OF_BOUNDS"
	ErrNoResource  = "E_NO_RESOURCE"
	ErrBadMorph    = "E_BAD_MORPH"
	ErrNoTarget    = "E_NO_TARGET"
	ErrDisabled    = "E_DISABLED"
	ErrInternal    = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrRateLimit:       {},
	ErrNoPlayer:        {},
	ErrNoParent:        {},
	ErrNotOwner:        {},
	ErrTooFar:          {},
	ErrCollision:       {},
	ErrOutOfBounds:     {},
	ErrNoResource:      {},
	ErrBadMorph:        {},
	ErrNoTarget:        {},
	ErrDisabled:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
