package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imamik/stratus/internal/platform/ssh"
	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/provisioning/compute"
)

// RemoteRunner runs a command on one host.
type RemoteRunner interface {
	Run(ctx context.Context, command string) (*ssh.Result, error)
}

var newRemoteRunner = func(cfg ssh.Config) (RemoteRunner, error) {
	return ssh.NewClient(cfg)
}

// ExecOptions selects the login used by InstanceExec.
type ExecOptions struct {
	User     string
	Identity string
	Port     int
}

// InstanceExec runs command on a running instance over SSH and copies its
// output. The identity defaults to the private key saved for the configured
// key pair. The security group must allow the SSH port.
func InstanceExec(ctx context.Context, configPath, id, command string, opts ExecOptions) error {
	cfg, p, err := instanceProvisioner(ctx, configPath)
	if err != nil {
		return err
	}

	if opts.Identity == "" {
		if cfg.Compute.KeyName == "" {
			return &provisioning.ValidationError{Field: "identity", Reason: "no key file given and compute.key_name is not set"}
		}
		opts.Identity = filepath.Join(cfg.Workspace, "keys", cfg.Compute.KeyName+".pem")
	}

	r, err := p.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.State != compute.StateRunning || r.PublicAddress == "" {
		return &provisioning.ValidationError{Field: "instance", Value: id, Reason: fmt.Sprintf("is %s without a public address", r.State)}
	}

	key, err := os.ReadFile(opts.Identity)
	if err != nil {
		return fmt.Errorf("failed to read identity: %w", err)
	}

	runner, err := newRemoteRunner(ssh.Config{
		Host:       r.PublicAddress,
		Port:       opts.Port,
		User:       opts.User,
		PrivateKey: key,
	})
	if err != nil {
		return err
	}

	res, err := runner.Run(ctx, command)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, res.Stdout)
	fmt.Fprint(stderr, res.Stderr)
	if res.ExitCode != 0 {
		return fmt.Errorf("command exited with status %d on %s", res.ExitCode, id)
	}
	return nil
}
