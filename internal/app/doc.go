// Package app wires the QoE dashboard together and owns its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (environment over config.yaml)
//	2. Initialize the JSON logger and OpenTelemetry providers
//	3. Create the session, websocket hub and sheets loader
//	4. Build the dashboard and health services on top of them
//	5. Mount the HTTP handlers behind the middleware chain
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Tests build an Application from an in-memory config with New.
//
// # Graceful Shutdown
//
// Run waits for SIGINT or SIGTERM, drains in-flight requests, disconnects
// websocket clients and flushes the metric providers. The package never
// calls os.Exit.
package app
