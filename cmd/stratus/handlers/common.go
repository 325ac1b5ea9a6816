package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/imamik/stratus/internal/config"
	"github.com/imamik/stratus/internal/platform/cloud"
	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/provisioning/compute"
	"github.com/imamik/stratus/internal/provisioning/mirror"
	"github.com/imamik/stratus/internal/provisioning/storage"
	"github.com/imamik/stratus/internal/util/namelock"
)

// Factory function variables - can be replaced in tests.
var (
	loadConfig      = config.Load
	newCloudFactory = cloud.NewFactory

	newBucketManager = func(f *cloud.Factory, cfg *config.Config, obs provisioning.Observer) BucketManager {
		return storage.NewManagerFromFactory(f,
			storage.WithObserver(obs),
			storage.WithCacheDir(cfg.UploadDir),
			storage.WithTimeouts(config.LoadTimeouts()),
			storage.WithLocker(namelock.New()),
		)
	}

	newProvisioner = func(f *cloud.Factory, cfg *config.Config, obs provisioning.Observer) InstanceProvisioner {
		return compute.NewProvisionerFromFactory(f,
			compute.WithObserver(obs),
			compute.WithDefaults(cfg.Compute),
			compute.WithTimeouts(config.LoadTimeouts()),
			compute.WithLocker(namelock.New()),
		)
	}

	newMirror = func(cfg *config.Config, obs provisioning.Observer) Mirror {
		return mirror.NewManager(cfg.ReposDir,
			mirror.WithObserver(obs),
			mirror.WithTimeouts(config.LoadTimeouts()),
		)
	}

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func newObserver(cfg *config.Config) provisioning.Observer {
	return provisioning.NewObserver(provisioning.NewLogger(stderr, cfg.Log.Format, cfg.Log.Verbosity))
}

// cloudSession loads the configuration and resolves provider credentials.
func cloudSession(ctx context.Context, configPath string) (*config.Config, *cloud.Factory, provisioning.Observer, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	f, err := newCloudFactory(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, f, newObserver(cfg), nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(data))
	return err
}
