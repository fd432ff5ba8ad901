// Package wikibase provides the HTTP adapters for the remote knowledge
// graph and the shape document wiki.
//
// Both are MediaWiki installations. Client speaks the action API
// (api.php) with a static OAuth 2.0 bearer token; QueryService speaks the
// SPARQL endpoint. FactStore and DocumentStore build on them to implement
// the driven.FactStore and driven.DocumentStore ports.
//
// Writes are sent with bot=1 and maxlag=5. A maxlag or HTTP 429 response
// is retried after the server's Retry-After delay, up to MaxRetries times.
// Edit throttling is not done here; see the ratelimit package.
package wikibase
