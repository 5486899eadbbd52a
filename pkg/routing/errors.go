package routing

import "errors"

// ErrNoTargets is returned when a selector is built without targets.
var ErrNoTargets = errors.New("no backend targets configured")
