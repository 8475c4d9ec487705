// Package ratelimit limits hits per key with fixed windows.
//
// Counts live in a Counter. KVCounter stores them in any kv.Store and suits
// single-process or low-traffic use; RedisCounter counts atomically across
// processes:
//
//	rl := ratelimit.New(ratelimit.NewRedisCounter(rdb),
//	    ratelimit.WithLimit(10),
//	    ratelimit.WithPeriod(time.Minute),
//	)
//
//	res, err := rl.Limit(ctx, "login:"+ip.String())
//	if err != nil {
//	    return err
//	}
//	res.WriteHeaders(w.Header())
//	if !res.Success {
//	    w.WriteHeader(http.StatusTooManyRequests)
//	    return nil
//	}
package ratelimit
