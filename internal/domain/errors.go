package domain

import "errors"

// ErrProviderUnavailable marks transport failures and non-200 responses from
// an external data provider. Batch steps skip the affected symbol and move
// on; they never abort on it.
var ErrProviderUnavailable = errors.New("data provider unavailable")
