// Package session stores per-visitor state in a key-value store.
//
// A Session is a plain value: a map of JSON-serializable entries plus a
// flash namespace whose entries disappear after the first read. Mutations
// only mark it dirty; nothing is persisted until Storage.Save is called.
//
//	st := session.NewKVStorage(kv.New(store), session.WithTTL(24*time.Hour))
//
//	s, _ := st.Read(ctx, "")       // fresh session with a random id
//	s.Set("user_id", 42)
//	s.Flash("notice", "Saved!")
//	_ = st.Save(ctx, s)
//
//	s, _ = st.Read(ctx, s.ID())
//	s.Get("notice")                // "Saved!", true
//	s.Get("notice")                // nil, false
//
// Middleware wires a Storage to HTTP: it reads the session id from a
// (optionally HMAC-signed) cookie, exposes the session via FromContext and
// saves it after the handler when dirty. There is no locking; concurrent
// requests for the same session are last-write-wins.
package session
