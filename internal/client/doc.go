// Package client provides the authenticated HTTP client for the Papertrail
// archive API.
//
// This package handles:
//   - Token authentication (X-Papertrail-Token header)
//   - Error classification (auth, not found, server error)
//   - Retry with exponential backoff for transient failures
//   - Global request throttling via an injected rate limiter
//
// # Usage
//
//	c := client.New(client.Options{
//	    Token:    token,
//	    Throttle: ratelimit.New(200 * time.Millisecond),
//	})
//
//	body, err := c.Fetch(ctx, id)
//	defer body.Close()
package client
