// Package httpclient is the single outbound HTTP path for DictHub: plugin
// repositories, plugin sources, language detection endpoints and the plugin
// sandbox's http bridge all go through Client.
//
// Requests pass a shared token-bucket limiter, then a circuit breaker chosen
// by host, then resty over a retryablehttp transport. Non-200 responses and
// transport errors wrap failure.ErrFetch.
package httpclient
