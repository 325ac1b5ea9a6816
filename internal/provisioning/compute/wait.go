package compute

import (
	"context"
	"errors"
	"time"

	"github.com/imamik/stratus/internal/platform/ec2"
	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/util/retry"
)

// WaitUntilRunning polls the instance at the configured interval until it
// runs. A terminated instance yields LaunchFailedError, an expired timeout
// ProvisionTimeoutError and a cancelled ctx CancelledError. A non-positive
// timeout uses the configured default.
//
// The instance id may be unknown to describe calls for a short time after
// launch; that is treated as still pending.
func (p *Provisioner) WaitUntilRunning(ctx context.Context, id string, timeout time.Duration) (record InstanceRecord, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opWait, start, err) }()

	if id == "" {
		return InstanceRecord{}, &provisioning.ValidationError{Field: "instance_id", Reason: "instance id is required"}
	}
	if timeout <= 0 {
		timeout = p.waitTimeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	last := InstanceRecord{ID: id, State: StatePending}
	err = retry.Until(waitCtx, p.pollInterval, func(c context.Context) (bool, error) {
		inst, err := p.client.DescribeInstance(c, id)
		if err != nil {
			switch {
			case c.Err() != nil:
				return false, nil
			case ec2.IsInstanceNotFound(err), ec2.IsThrottled(err):
				p.logWaiting(id, last.State)
				return false, nil
			}
			return false, p.classify(c, "DescribeInstances", err)
		}

		last = toRecord(inst)
		switch last.State {
		case StateRunning:
			return true, nil
		case StateTerminated:
			return false, &provisioning.LaunchFailedError{InstanceID: id, State: inst.State}
		}
		p.logWaiting(id, last.State)
		return false, nil
	})

	switch {
	case err == nil:
		provisioning.LogResourceCreated(p.observer, phase, "instance", last.Name(), id)
		return last, nil
	case ctx.Err() != nil:
		err = &provisioning.CancelledError{Operation: opWait, Err: ctx.Err()}
	case errors.Is(err, context.DeadlineExceeded):
		err = &provisioning.ProvisionTimeoutError{InstanceID: id, Timeout: timeout, LastState: string(last.State)}
	}
	provisioning.LogResourceFailed(p.observer, phase, "instance", id, err)
	return last, err
}

func (p *Provisioner) logWaiting(id string, state State) {
	p.observer.Event(provisioning.Event{
		Type:     provisioning.EventResourceWaiting,
		Phase:    phase,
		Resource: id,
		Message:  "waiting for instance to run",
		Fields:   map[string]string{"state": string(state)},
	})
}
