// Package httputil provides retry helpers for registry HTTP clients.
//
// [Retry] re-runs an operation with exponential backoff, but only when the
// returned error is wrapped in [RetryableError]. Registry clients wrap
// network failures and 5xx responses; 404s and decode errors are returned
// immediately.
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return client.Get(ctx, url, &v)
//	})
//
// The resolver core never retries on its own; retry policy is a property
// of the HTTP stack and is configured through [registry] retries.
package httputil
