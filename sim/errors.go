package sim

import "errors"

// ErrUnknownScene is returned by Build for a name no builder is
// registered under.
var ErrUnknownScene = errors.New("sim: unknown scene")
