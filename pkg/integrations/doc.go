// Package integrations provides the shared HTTP client used by registry
// API clients.
//
// # Client Pattern
//
// Registry clients embed [Client] and add API-specific parsing:
//
//	type Client struct {
//	    *integrations.Client
//	    baseURL string
//	}
//
// [Client] handles:
//   - default headers and per-request timeouts
//   - response caching through a [cache.Cache] backend (bypassed with refresh)
//   - retries of network failures, 429 and 5xx responses
//
// # Errors
//
//   - [ErrNotFound]: the registry answered 404
//   - [ErrNetwork]: transport failure or non-200/404 status
//   - [ErrMalformed]: the body could not be decoded
//
// Context cancellation is returned as ctx.Err(), unwrapped.
//
// [cache.Cache]: github.com/matzehuels/deptree/pkg/cache.Cache
package integrations
