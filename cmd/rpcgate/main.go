// rpcgate is a JSON-RPC 2.0 reverse proxy with per-IP rate limiting and
// call statistics.
//
// Usage:
//
//	# Start the proxy
//	rpcgate run --config /etc/rpcgate/config.yaml
//
//	# Check a configuration file
//	rpcgate validate --config config.yaml
//
//	# Show the statistics of a caller
//	rpcgate stats get 1.2.3.4
//
//	# Show version information
//	rpcgate version
package main

func main() {
	Execute()
}
