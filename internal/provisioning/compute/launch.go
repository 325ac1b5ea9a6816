package compute

import (
	"context"
	"time"

	"github.com/imamik/stratus/internal/platform/ec2"
	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/util/labels"
	"github.com/imamik/stratus/internal/util/naming"
)

// LaunchRequest describes one instance launch. Empty ImageID, InstanceType and
// KeyName fall back to the provisioner defaults.
type LaunchRequest struct {
	ImageID         string
	InstanceType    string
	KeyName         string
	SecurityGroupID string
	// Script is the first-boot user data, usually from BuildBootstrapScript.
	Script string
	// Name is the Name tag. Empty generates stratus-<suffix>.
	Name string
	// WebServer and SourceRepo are recorded as tags; SourceRepo is cut to
	// the provider's tag value limit.
	WebServer  string
	SourceRepo string
	Tags       map[string]string

	// Wait blocks until the instance runs, up to WaitTimeout (or the default).
	Wait        bool
	WaitTimeout time.Duration
}

// Launch submits exactly one launch request for exactly one instance and
// returns its pending record, or the running record when req.Wait is set.
// A throttled request is retried once; other failures surface as LaunchError.
func (p *Provisioner) Launch(ctx context.Context, req LaunchRequest) (record InstanceRecord, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opLaunch, start, err) }()

	req = p.withDefaults(req)
	if req.ImageID == "" {
		return InstanceRecord{}, &provisioning.ValidationError{Field: "image_id", Reason: "image id is required"}
	}
	if req.InstanceType == "" {
		return InstanceRecord{}, &provisioning.ValidationError{Field: "instance_type", Reason: "instance type is required"}
	}

	in := ec2.RunInput{
		ImageID:      req.ImageID,
		InstanceType: req.InstanceType,
		KeyName:      req.KeyName,
		UserData:     req.Script,
		Tags: labels.NewTagBuilder(req.Name).
			Merge(req.Tags).
			WithWebServer(req.WebServer).
			WithSourceRepo(req.SourceRepo).
			Build(),
	}
	if req.SecurityGroupID != "" {
		in.SecurityGroupIDs = []string{req.SecurityGroupID}
	}

	provisioning.LogResourceCreating(p.observer, phase, "instance", req.Name)

	var inst ec2.Instance
	err = p.throttled(ctx, opLaunch, func() error {
		var err error
		inst, err = p.client.RunInstance(ctx, in)
		return err
	})
	if err != nil {
		err = p.classify(ctx, "RunInstances", err)
		switch provisioning.Kind(err) {
		case provisioning.KindTransient, provisioning.KindCancelled:
		default:
			err = &provisioning.LaunchError{Err: err}
		}
		provisioning.LogResourceFailed(p.observer, phase, "instance", req.Name, err)
		return InstanceRecord{}, err
	}

	record = toRecord(inst)
	provisioning.LogResourceCreated(p.observer, phase, "instance", req.Name, record.ID)

	if !req.Wait {
		return record, nil
	}
	return p.WaitUntilRunning(ctx, record.ID, req.WaitTimeout)
}

func (p *Provisioner) withDefaults(req LaunchRequest) LaunchRequest {
	if req.ImageID == "" {
		req.ImageID = p.defaults.ImageID
	}
	if req.InstanceType == "" {
		req.InstanceType = p.defaults.InstanceType
	}
	if req.KeyName == "" {
		req.KeyName = p.defaults.KeyName
	}
	if req.Name == "" {
		req.Name = naming.Instance(p.suffix())
	}
	return req
}
