// Package config provides loading and environment overlay for commlog
// configuration. It exposes a Default() baseline, file loading (JSON or YAML)
// and a COMMLOG_* environment overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/commlog.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
