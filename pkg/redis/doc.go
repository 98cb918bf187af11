// Package redis opens go-redis clients from configuration.
//
//	client, err := redis.Open(ctx, redis.Config{
//	    URL:      "redis://localhost:6379/0",
//	    PoolSize: 20,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Open pings the server and retries with a linear backoff. Healthcheck
// adapts a client to a readiness check.
package redis
