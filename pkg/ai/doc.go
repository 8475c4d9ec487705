// Package ai runs inference models on Cloudflare Workers AI.
//
// AI wraps any Runner; Client is the Runner that calls the REST API,
// optionally through an AI Gateway:
//
//	client, err := ai.NewClient(ai.Config{AccountID: id, APIToken: token})
//	a := ai.New(client)
//
//	out, err := a.Run(ctx, "@cf/meta/llama-3.1-8b-instruct",
//	    map[string]any{"prompt": "Write a haiku"},
//	    ai.WithGateway(ai.Gateway{ID: "my-gateway", CacheTTL: time.Hour}),
//	)
//
// JSON responses are unwrapped from the API envelope; binary responses such
// as generated images are returned as is.
package ai
