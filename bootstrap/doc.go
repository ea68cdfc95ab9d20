// Package bootstrap runs a collector job with a uniform lifecycle: validate
// config, initialize logging, start components, run configure callbacks,
// execute the task under signal cancellation, then stop components in
// reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(db)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return c.Run(ctx)
//	})
package bootstrap
