// Package config loads, defaults and validates the rpcgate configuration.
//
// Configuration is read from a YAML file. Values missing from the file fall
// back to the defaults in defaults.go, and a small set of RPCGATE_* environment
// variables may override the file:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//	if err != nil {
//	    var verr config.ValidationError
//	    if errors.As(err, &verr) {
//	        for _, fe := range verr.Errors {
//	            fmt.Println(fe.Field, fe.Message)
//	        }
//	    }
//	}
//
// A minimal file only needs the backend list:
//
//	backends:
//	  urls:
//	    - http://node-1:8545
//	    - http://node-2:8545
//
// # Hot reload
//
// Watcher observes the configuration file with fsnotify and invokes a callback
// with the freshly loaded configuration after a debounce interval. Only a few
// settings (the log level) are applied at runtime; the rest need a restart.
package config
