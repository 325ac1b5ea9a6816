package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/imamik/stratus/internal/config"
	"github.com/imamik/stratus/internal/provisioning/compute"
	"github.com/imamik/stratus/internal/util/async"
	"github.com/imamik/stratus/internal/util/labels"
	"github.com/imamik/stratus/internal/util/netutil"
)

// InstanceProvisioner is the compute surface used by the instance commands.
type InstanceProvisioner interface {
	EnsureSecurityGroup(ctx context.Context, name, vpcID string, port int) (string, error)
	EnsureKeyPair(ctx context.Context, name string) (compute.KeyPairResult, error)
	Launch(ctx context.Context, req compute.LaunchRequest) (compute.InstanceRecord, error)
	WaitUntilRunning(ctx context.Context, id string, timeout time.Duration) (compute.InstanceRecord, error)
	Describe(ctx context.Context) ([]compute.InstanceRecord, error)
	Get(ctx context.Context, id string) (compute.InstanceRecord, error)
	Terminate(ctx context.Context, id string) error
}

// waitForPort is replaced in tests.
var waitForPort = netutil.WaitForPort

// LaunchOptions holds the instance launch flags. Empty fields fall back to the
// compute section of the configuration.
type LaunchOptions struct {
	Name          string
	ImageID       string
	InstanceType  string
	KeyName       string
	KeyType       string
	KeyOut        string
	SecurityGroup string
	VpcID         string
	Package       string
	SourceRepo    string
	Port          int

	// Wait blocks until the instance runs; WaitHTTP additionally waits for
	// the web port to accept connections.
	Wait     bool
	WaitHTTP bool
	Timeout  time.Duration
	JSON     bool
}

func (o LaunchOptions) withDefaults(cfg *config.Config) LaunchOptions {
	if o.SecurityGroup == "" {
		o.SecurityGroup = cfg.Compute.SecurityGroup
	}
	if o.VpcID == "" {
		o.VpcID = cfg.Compute.VpcID
	}
	if o.Package == "" {
		o.Package = cfg.Compute.WebServerPackage
	}
	if o.Port == 0 {
		o.Port = cfg.Compute.WebPort
	}
	if o.KeyName == "" {
		o.KeyName = cfg.Compute.KeyName
	}
	if o.KeyName != "" && o.KeyOut == "" {
		o.KeyOut = filepath.Join(cfg.Workspace, "keys", o.KeyName+".pem")
	}
	return o
}

// instanceProvisioner builds a provisioner. keyType, when not empty,
// overrides compute.key_type for key pairs created by this command.
func instanceProvisioner(ctx context.Context, configPath string, keyType ...string) (*config.Config, InstanceProvisioner, error) {
	cfg, f, obs, err := cloudSession(ctx, configPath)
	if err != nil {
		return nil, nil, err
	}
	if len(keyType) > 0 && keyType[0] != "" {
		cfg.Compute.KeyType = keyType[0]
	}
	return cfg, newProvisioner(f, cfg, obs), nil
}

// InstanceLaunch launches one web-serving instance.
//
// The bootstrap script is rendered first so invalid input never reaches the
// provider. The security group and key pair are then ensured in parallel
// before exactly one launch request is sent.
func InstanceLaunch(ctx context.Context, configPath string, opts LaunchOptions) error {
	cfg, p, err := instanceProvisioner(ctx, configPath, opts.KeyType)
	if err != nil {
		return err
	}
	opts = opts.withDefaults(cfg)

	script, err := compute.BuildBootstrapScript(opts.Package, opts.SourceRepo)
	if err != nil {
		return err
	}

	var groupID string
	tasks := []async.Task{{
		Name: "security group",
		Func: func(ctx context.Context) error {
			var err error
			groupID, err = p.EnsureSecurityGroup(ctx, opts.SecurityGroup, opts.VpcID, opts.Port)
			return err
		},
	}}
	if opts.KeyName != "" {
		tasks = append(tasks, async.Task{
			Name: "key pair",
			Func: func(ctx context.Context) error {
				return ensureKeyPair(ctx, p, opts.KeyName, opts.KeyOut)
			},
		})
	}
	if err := async.RunParallel(ctx, tasks); err != nil {
		return err
	}

	record, err := p.Launch(ctx, compute.LaunchRequest{
		ImageID:         opts.ImageID,
		InstanceType:    opts.InstanceType,
		KeyName:         opts.KeyName,
		SecurityGroupID: groupID,
		Script:          script,
		Name:            opts.Name,
		WebServer:       opts.Package,
		SourceRepo:      opts.SourceRepo,
		Wait:            opts.Wait || opts.WaitHTTP,
		WaitTimeout:     opts.Timeout,
	})
	if err != nil {
		return err
	}

	if opts.WaitHTTP && record.PublicAddress != "" {
		fmt.Fprintf(stderr, "Waiting for %s:%d to accept connections...\n", record.PublicAddress, opts.Port)
		if err := waitForPort(ctx, record.PublicAddress, opts.Port, netutil.WebServerWaitTimeout, netutil.DefaultDialInterval); err != nil {
			return fmt.Errorf("instance %s is running but the web server is not reachable: %w", record.ID, err)
		}
	}

	if opts.JSON {
		return printJSON(record)
	}
	fmt.Fprintf(stdout, "Launched %s (%s) in state %s\n", successStyle.Render(record.ID), record.Name(), record.State)
	if record.PublicAddress != "" {
		fmt.Fprintf(stdout, "  http://%s:%d/\n", record.PublicAddress, opts.Port)
	}
	return nil
}

func ensureKeyPair(ctx context.Context, p InstanceProvisioner, name, out string) error {
	kp, err := p.EnsureKeyPair(ctx, name)
	if err != nil {
		return err
	}
	if !kp.Created {
		fmt.Fprintf(stdout, "Key pair %s already registered\n", name)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(out, kp.PrivateKey, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	fmt.Fprintf(stdout, "Key pair %s created (%s); private key written to %s\n", name, kp.Fingerprint, out)
	return nil
}

// InstanceList lists the region's instances. managedOnly keeps only the
// instances stratus launched.
func InstanceList(ctx context.Context, configPath string, jsonOutput, managedOnly bool) error {
	_, p, err := instanceProvisioner(ctx, configPath)
	if err != nil {
		return err
	}

	records, err := p.Describe(ctx)
	if err != nil {
		return err
	}
	if managedOnly {
		records = slices.DeleteFunc(records, func(r compute.InstanceRecord) bool {
			return !labels.IsManaged(r.Tags)
		})
	}
	if jsonOutput {
		return printJSON(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(stdout, dimStyle.Render("No instances"))
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.ID, r.Name(), r.Type, string(r.State), r.PublicAddress, yesNo(labels.IsManaged(r.Tags))})
	}
	fmt.Fprintln(stdout, renderTable([]string{"ID", "NAME", "TYPE", "STATE", "ADDRESS", "MANAGED"}, rows))
	return nil
}

// InstanceShow shows one instance.
func InstanceShow(ctx context.Context, configPath, id string, jsonOutput bool) error {
	_, p, err := instanceProvisioner(ctx, configPath)
	if err != nil {
		return err
	}

	r, err := p.Get(ctx, id)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(r)
	}
	fmt.Fprintln(stdout, renderTable(
		[]string{"ID", "NAME", "TYPE", "STATE", "ADDRESS"},
		[][]string{{r.ID, r.Name(), r.Type, string(r.State), r.PublicAddress}},
	))
	return nil
}

// InstanceWait blocks until an instance runs.
func InstanceWait(ctx context.Context, configPath, id string, timeout time.Duration) error {
	_, p, err := instanceProvisioner(ctx, configPath)
	if err != nil {
		return err
	}

	r, err := p.WaitUntilRunning(ctx, id, timeout)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Instance %s is %s at %s\n", r.ID, successStyle.Render(string(r.State)), r.PublicAddress)
	return nil
}

// InstanceTerminate requests termination of an instance.
func InstanceTerminate(ctx context.Context, configPath, id string) error {
	_, p, err := instanceProvisioner(ctx, configPath)
	if err != nil {
		return err
	}
	if err := p.Terminate(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Termination of %s requested\n", id)
	return nil
}

// SecurityGroupEnsure makes sure a group exposing port exists.
func SecurityGroupEnsure(ctx context.Context, configPath, name, vpcID string, port int) error {
	cfg, p, err := instanceProvisioner(ctx, configPath)
	if err != nil {
		return err
	}
	if name == "" {
		name = cfg.Compute.SecurityGroup
	}
	if vpcID == "" {
		vpcID = cfg.Compute.VpcID
	}
	if port == 0 {
		port = cfg.Compute.WebPort
	}

	id, err := p.EnsureSecurityGroup(ctx, name, vpcID, port)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Security group %s (%s) allows tcp/%d\n", name, successStyle.Render(id), port)
	return nil
}

// KeyPairEnsure makes sure a key pair is registered, writing a newly created
// private key to out. An empty keyType uses compute.key_type.
func KeyPairEnsure(ctx context.Context, configPath, name, out, keyType string) error {
	cfg, p, err := instanceProvisioner(ctx, configPath, keyType)
	if err != nil {
		return err
	}
	if out == "" {
		out = filepath.Join(cfg.Workspace, "keys", name+".pem")
	}
	return ensureKeyPair(ctx, p, name, out)
}
