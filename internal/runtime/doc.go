// Package runtime wires configuration, provider clients, the optional
// sandbox store, metrics and the cursor walker for one process.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	src, _ := rt.Source(commlog.KindCall, commlog.Filters{})
//	res := rt.Walker().Collect(ctx, src, walker.Options{})
package runtime
