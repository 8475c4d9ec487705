// Package kv provides a JSON key-value wrapper over pluggable storage bindings.
//
// A Store is the binding: it moves bytes, metadata and expirations. The
// package ships three of them:
//
//   - Memory: in-process LRU with a background sweeper, for development and tests
//   - Redis: one hash per key, native TTLs, SCAN-based listing
//   - SQL: a table in a SQLite database
//
// KV sits on top and speaks JSON:
//
//	store := kv.NewRedis(client, kv.WithPrefix("app"))
//	k := kv.New(store)
//
//	_ = k.Set(ctx, "user:1", user, kv.WithTTL(time.Hour), kv.WithMetadata(map[string]string{"v": "2"}))
//
//	var u User
//	found, err := k.GetInto(ctx, "user:1", &u)
//
//	page, err := k.Keys(ctx, "user:", kv.WithLimit(100))
//	for !page.Done {
//		page, err = k.Keys(ctx, "user:", kv.WithCursor(page.Cursor))
//	}
//
// Get never reports a missing key as an error; it returns a GetResult whose
// Data is nil.
package kv
