// Package env reads configuration variables for the current application.
//
// Variables come from an explicit map, usually loaded from the config file,
// with the process environment as fallback:
//
//	e := env.New(map[string]string{"VERIFIER_API_KEY": "secret"})
//	key, err := e.Fetch("VERIFIER_API_KEY")
//	region := e.MustFetch("REGION", "auto")
//
// A missing key yields a *KeyError matching ErrKeyNotFound.
package env
