package configwatcher

import "github.com/bft-labs/dronelink/pkg/dronelink"

// WithConfigWatcher returns a dronelink Option that enables config file
// watching.
//
// Usage:
//
//	s, err := dronelink.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path:   path,
//	        Reload: reload,
//	    }),
//	)
func WithConfigWatcher(cfg Config) dronelink.Option {
	return dronelink.WithPlugin(New(cfg))
}
