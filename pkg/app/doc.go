// Package app assembles rpcgate from its configuration and owns the process
// lifecycle: startup, configuration reload and ordered shutdown.
package app
