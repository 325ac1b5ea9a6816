package compute

import (
	"time"

	"github.com/imamik/stratus/internal/platform/ec2"
	"github.com/imamik/stratus/internal/util/labels"
)

// State is the lifecycle state of an instance as this package reports it.
type State string

// Instance states. Provider states map onto these; see stateOf.
const (
	StatePending    State = "Pending"
	StateRunning    State = "Running"
	StateTerminated State = "Terminated"
	StateUnknown    State = "Unknown"
)

// InstanceRecord describes one instance. Tags always contain a Name key.
type InstanceRecord struct {
	ID            string
	Type          string
	State         State
	PublicAddress string
	Tags          map[string]string
	LaunchedAt    time.Time
}

// Name returns the Name tag.
func (r InstanceRecord) Name() string {
	return r.Tags[labels.KeyName]
}

func stateOf(providerState string) State {
	switch providerState {
	case "pending":
		return StatePending
	case "running":
		return StateRunning
	case "shutting-down", "terminated":
		return StateTerminated
	default:
		return StateUnknown
	}
}

func toRecord(inst ec2.Instance) InstanceRecord {
	tags := make(map[string]string, len(inst.Tags)+1)
	for k, v := range inst.Tags {
		tags[k] = v
	}
	if _, ok := tags[labels.KeyName]; !ok {
		tags[labels.KeyName] = ""
	}
	return InstanceRecord{
		ID:            inst.ID,
		Type:          inst.Type,
		State:         stateOf(inst.State),
		PublicAddress: inst.PublicIP,
		Tags:          tags,
		LaunchedAt:    inst.LaunchTime,
	}
}
