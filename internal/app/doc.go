// Package app wires the DictHub components together from a config.Config.
//
// One App owns the store, the outbound HTTP client, the user preference and
// the plugin components. Sessions created from it share those and get their
// own sandbox:
//
//	a, err := app.New(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	sess := a.NewSession()
//	go sess.Run(ctx)
package app
