// Package config provides configuration types and loading for the
// gateway.
//
// Configuration is a single YAML document in the apiVersion/kind/metadata/
// spec shape. The loader substitutes ${VAR} and ${VAR:-default} from the
// environment ("$$" escapes a literal dollar), then applies defaults.
//
//	cfg, err := config.LoadConfig("aclgw.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// ValidateConfig returns ValidationErrors listing every violation. The
// ACL client list is validated strictly: a client without a secret or
// scopes, or a duplicated client id, fails startup.
//
// # File Watching
//
// Watcher reloads the file on change and hands each validated result to
// a callback; the callback is never invoked concurrently with itself.
//
//	w, err := config.NewWatcher(path, onChange, config.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
package config
