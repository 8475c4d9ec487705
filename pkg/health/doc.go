// Package health serves liveness and readiness probes for the bindings an
// application is configured with.
//
// Readiness runs every check concurrently under a shared timeout and
// reports each one by name:
//
//	checks := health.Checks{
//	    "DB":    db.Healthcheck(sqlDB),
//	    "REDIS": redis.Healthcheck(client),
//	}
//	r.Mount("/health", health.Routes(checks, health.WithLogger(log)))
//
// Responses are plain text ("OK" or "Service Unavailable") unless the
// client asks for JSON with an Accept header or ?format=json:
//
//	{
//	  "status": "unhealthy",
//	  "checks": {
//	    "DB":    {"status": "healthy", "duration": "1.2ms"},
//	    "REDIS": {"status": "unhealthy", "error": "connection refused", "duration": "3ms"}
//	  }
//	}
package health
