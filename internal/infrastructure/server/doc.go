// Package server provides HTTP server setup for DictHub.
//
// Server Lifecycle:
//  1. Load configuration from file and environment
//  2. Build the app (store, HTTP client, preference, plugin components)
//  3. Setup HTTP routes and middleware
//  4. Start the HTTP server and the background update checks
//  5. Graceful shutdown when the context is cancelled
//
// Example Usage:
//
//	a, err := app.New(ctx, config.LoadOrDefault(), logger)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	return server.NewServer(a).Run(ctx)
package server
