package phenodata

import "errors"

// ErrReloadDisabled is returned by Cache.Invalidate when reloading was not
// enabled for the cache.
var ErrReloadDisabled = errors.New("reload is disabled")
