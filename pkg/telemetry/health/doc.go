// Package health implements liveness and readiness endpoints.
//
// Liveness (/health) only reports that the process serves HTTP. Readiness
// (/ready) runs every registered check concurrently, each bounded by the
// checker's timeout, and answers 503 when any of them fails. The proxy
// registers checks for the shared counter store and the call statistics
// repository.
package health
