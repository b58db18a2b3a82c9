package slim

import "errors"

// ErrInvalidSlimRequest is returned before any computation when the graph,
// slim set or relation types of a request are unusable.
var ErrInvalidSlimRequest = errors.New("slim: invalid slim request")
