// Package storage provides the shared counter stores behind the rate
// limiters.
//
// A counter store implements fixed-window counting: an atomic increment that
// also reports the remaining lifetime of the counter, and a separate expiry
// call used when the counter is first created. Two implementations exist:
//
//   - Redis: shared by every proxy instance, survives proxy restarts
//   - Memory: process local, for single-node and development setups
//
// # Usage
//
//	store := storage.NewRedisCounterStore(storage.NewRedisClient(cfg.Store.Redis))
//	count, ttl, err := store.IncrementWithTTL(ctx, "rtlmt:1.2.3.4")
//	if count == 1 {
//	    err = store.Expire(ctx, "rtlmt:1.2.3.4", time.Minute)
//	}
//
// # Thread Safety
//
// All stores are safe for concurrent use.
package storage
