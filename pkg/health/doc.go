// Package health provides liveness and readiness probes.
//
// Checks are plain func(context.Context) error closures. Modules contribute
// them (redis and postgres do) and the server mounts the handlers on its
// ops router:
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(checks, health.WithLogger(log)))
//
// Checks run concurrently under one timeout. Responses are plain text
// ("OK" or "Service Unavailable") unless the client asks for JSON with an
// Accept: application/json header or ?format=json:
//
//	{
//	  "status": "unhealthy",
//	  "checks": {
//	    "shop/postgres": {"status": "healthy"},
//	    "shop/redis": {"status": "unhealthy", "error": "connection refused"}
//	  }
//	}
package health
