// Package cache implements read-through caching on top of a kv.KV.
//
// Reads are awaited because the caller needs the value; writes are handed to
// a deferred.Deferrer so populating the cache never adds latency to the
// request that computed the value.
//
//	c := cache.New(kv.New(store), group)
//
//	user, err := cache.Fetch(ctx, c, "user:42", func(ctx context.Context) (User, error) {
//		return repo.FindUser(ctx, 42)
//	}, cache.WithTTL(5*time.Minute))
//
//	c.Purge(ctx, "user:42")
//
// Every key is stored as "cache:<key>" so cached entries never collide with
// application keys in the same store. Entries live for DefaultTTL unless
// WithTTL says otherwise.
package cache
