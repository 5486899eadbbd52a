// Package stages contains the stages of the proxy chain, in the order the
// application wires them:
//
//  1. metadata: resolves the caller IP
//  2. global rate limit (optional): per-IP window limit, before parsing
//  3. parse: validates the JSON-RPC envelope
//  4. per-method rate limit (optional): per (method, IP) window limit
//  5. access log (optional): batched (timestamp, ip, method) lines
//  6. call tracking (optional): records the backend outcome after forwarding
//  7. forward: sends the request to the next backend (terminal)
package stages

// Stage names as reported by Name.
const (
	NameMetadata        = "metadata"
	NameGlobalRateLimit = "global_rate_limit"
	NameParse           = "parse"
	NameMethodRateLimit = "method_rate_limit"
	NameAccessLog       = "access_log"
	NameCallTracking    = "call_tracking"
	NameForward         = "forward"
)
