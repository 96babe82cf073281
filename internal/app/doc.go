// Package app bootstraps and runs the dashlink server.
//
// Bootstrap happens in two phases:
//
//  1. NewApplication initializes logging, loads the configuration
//     directory and wires the services: token store, provider registry,
//     token manager, HTTP handler and server.
//  2. Run serves HTTP until the context is cancelled or SIGINT/SIGTERM is
//     received. When the file token store is configured with watch enabled,
//     its fsnotify watcher runs alongside the server in the same errgroup,
//     so a failure of either stops both.
//
// Example:
//
//	cfg := app.NewConfig(false, "")
//	application, err := app.NewApplication(ctx, cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
package app
