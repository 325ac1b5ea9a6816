package compute

import (
	"context"
	"time"

	"github.com/imamik/stratus/internal/platform/ec2"
	"github.com/imamik/stratus/internal/provisioning"
)

// Describe returns every instance in the region. It has no side effects.
func (p *Provisioner) Describe(ctx context.Context) (records []InstanceRecord, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opDescribe, start, err) }()

	var instances []ec2.Instance
	err = p.throttled(ctx, opDescribe, func() error {
		var err error
		instances, err = p.client.ListInstances(ctx)
		return err
	})
	if err != nil {
		return nil, p.classify(ctx, "DescribeInstances", err)
	}

	records = make([]InstanceRecord, 0, len(instances))
	for _, inst := range instances {
		records = append(records, toRecord(inst))
	}
	return records, nil
}

// Get returns one instance, or NotFoundError when the id is unknown.
func (p *Provisioner) Get(ctx context.Context, id string) (InstanceRecord, error) {
	if id == "" {
		return InstanceRecord{}, &provisioning.ValidationError{Field: "instance_id", Reason: "instance id is required"}
	}

	var inst ec2.Instance
	err := p.throttled(ctx, opDescribe, func() error {
		var err error
		inst, err = p.client.DescribeInstance(ctx, id)
		return err
	})
	switch {
	case err == nil:
		return toRecord(inst), nil
	case ec2.IsInstanceNotFound(err):
		return InstanceRecord{}, &provisioning.NotFoundError{Resource: "instance", Name: id, Err: err}
	default:
		return InstanceRecord{}, p.classify(ctx, "DescribeInstances", err)
	}
}

// Terminate requests termination of one instance. It does not wait.
func (p *Provisioner) Terminate(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opTerminate, start, err) }()

	if id == "" {
		return &provisioning.ValidationError{Field: "instance_id", Reason: "instance id is required"}
	}

	provisioning.LogResourceDeleting(p.observer, phase, "instance", id)
	err = p.throttled(ctx, opTerminate, func() error {
		return p.client.TerminateInstance(ctx, id)
	})
	switch {
	case err == nil:
		provisioning.LogResourceDeleted(p.observer, phase, "instance", id)
		return nil
	case ec2.IsInstanceNotFound(err):
		err = &provisioning.NotFoundError{Resource: "instance", Name: id, Err: err}
	default:
		err = p.classify(ctx, "TerminateInstances", err)
	}
	provisioning.LogResourceFailed(p.observer, phase, "instance", id, err)
	return err
}
