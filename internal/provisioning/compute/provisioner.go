package compute

import (
	"time"

	"github.com/imamik/stratus/internal/config"
	"github.com/imamik/stratus/internal/platform/cloud"
	"github.com/imamik/stratus/internal/platform/ec2"
	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/util/namelock"
	"github.com/imamik/stratus/internal/util/naming"
)

const phase = "compute"

// Operation names used for events and metrics.
const (
	opEnsureGroup = "security_group_ensure"
	opLaunch      = "instance_launch"
	opWait        = "instance_wait"
	opDescribe    = "instance_describe"
	opTerminate   = "instance_terminate"
	opKeyPair     = "key_pair_ensure"
)

// Provisioner orchestrates security groups, key pairs and instances.
type Provisioner struct {
	client        *ec2.Client
	observer      provisioning.Observer
	locker        namelock.Locker
	defaults      config.ComputeConfig
	throttleDelay time.Duration
	pollInterval  time.Duration
	waitTimeout   time.Duration
	suffix        func() string
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithObserver sets the event observer.
func WithObserver(o provisioning.Observer) Option {
	return func(p *Provisioner) { p.observer = o }
}

// WithLocker serializes EnsureSecurityGroup calls per group name.
func WithLocker(l namelock.Locker) Option {
	return func(p *Provisioner) { p.locker = l }
}

// WithDefaults sets the launch defaults used for empty LaunchRequest fields.
func WithDefaults(c config.ComputeConfig) Option {
	return func(p *Provisioner) { p.defaults = c }
}

// WithTimeouts applies the throttle delay, poll interval and default wait timeout.
func WithTimeouts(t *config.Timeouts) Option {
	return func(p *Provisioner) {
		if t.ThrottleDelay > 0 {
			p.throttleDelay = t.ThrottleDelay
		}
		if t.PollInterval > 0 {
			p.pollInterval = t.PollInterval
		}
		if t.InstanceRunning > 0 {
			p.waitTimeout = t.InstanceRunning
		}
	}
}

// WithSuffixFunc replaces the generator of default instance name suffixes.
func WithSuffixFunc(fn func() string) Option {
	return func(p *Provisioner) { p.suffix = fn }
}

// NewProvisioner creates a Provisioner over client.
func NewProvisioner(client *ec2.Client, opts ...Option) *Provisioner {
	p := &Provisioner{
		client:   client,
		observer: provisioning.NopObserver(),
		defaults: config.ComputeConfig{
			ImageID:          config.DefaultImageID,
			InstanceType:     config.DefaultInstanceType,
			SecurityGroup:    config.DefaultSecurityGroup,
			WebServerPackage: config.DefaultWebServerPackage,
			WebPort:          config.DefaultWebPort,
		},
		throttleDelay: 2 * time.Second,
		pollInterval:  5 * time.Second,
		waitTimeout:   5 * time.Minute,
		suffix:        func() string { return naming.RandomSuffix(naming.SuffixLength) },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewProvisionerFromFactory wires a Provisioner to the factory's compute client.
func NewProvisionerFromFactory(f *cloud.Factory, opts ...Option) *Provisioner {
	return NewProvisioner(ec2.NewClient(f.Compute()), opts...)
}
