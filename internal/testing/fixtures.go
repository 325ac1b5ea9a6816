package testing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/stratus/internal/platform/ec2"
)

// DefaultVPC is the default VPC id served by ComputeFixture.
const DefaultVPC = "vpc-default"

type fixtureGroup struct {
	id    string
	name  string
	vpcID string
	perms []ec2.Permission
}

type fixtureInstance struct {
	inst  types.Instance
	polls int
	// fixed instances keep inst.State instead of following StateSequence.
	fixed bool
}

// ComputeFixture is an in-memory compute control plane served through
// ec2.MockAPI. Configure it before handing API() to a client.
type ComputeFixture struct {
	mu        sync.Mutex
	groups    map[string]*fixtureGroup
	instances map[string]*fixtureInstance
	keyPairs  map[string]string
	nextID    int

	// VpcID is the default VPC; empty means the region has none.
	VpcID string
	// StateSequence lists the states successive describes report for a
	// launched instance. The last state repeats.
	StateSequence []string
	// NotFoundPolls makes the first describes of a new instance report
	// InvalidInstanceID.NotFound.
	NotFoundPolls int
	// HideGroupsOnce makes the next group lookup miss, simulating a racing creator.
	HideGroupsOnce bool
	// FailCodes makes the named call fail with the given codes, one per call.
	// An empty code lets that call through.
	FailCodes map[string][]string

	Calls   map[string]int
	LastRun *awsec2.RunInstancesInput
}

// NewComputeFixture returns a fixture with a default VPC whose instances
// report pending once and then running.
func NewComputeFixture() *ComputeFixture {
	return &ComputeFixture{
		groups:        make(map[string]*fixtureGroup),
		instances:     make(map[string]*fixtureInstance),
		keyPairs:      make(map[string]string),
		VpcID:         DefaultVPC,
		StateSequence: []string{"pending", "running"},
		FailCodes:     make(map[string][]string),
		Calls:         make(map[string]int),
	}
}

func (f *ComputeFixture) injected(call string) error {
	f.Calls[call]++
	codes := f.FailCodes[call]
	if len(codes) == 0 {
		return nil
	}
	f.FailCodes[call] = codes[1:]
	if codes[0] == "" {
		return nil
	}
	return APIError(codes[0])
}

func (f *ComputeFixture) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%06d", prefix, f.nextID)
}

// AddGroup registers a security group with perms and returns its id.
func (f *ComputeFixture) AddGroup(name, vpcID string, perms ...ec2.Permission) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID("sg")
	f.groups[id] = &fixtureGroup{id: id, name: name, vpcID: vpcID, perms: perms}
	return id
}

// Rules returns the ingress rules of group id.
func (f *ComputeFixture) Rules(id string) []ec2.Permission {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.groups[id]; ok {
		return append([]ec2.Permission(nil), g.perms...)
	}
	return nil
}

// GroupCount returns the number of groups named name.
func (f *ComputeFixture) GroupCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, g := range f.groups {
		if g.name == name {
			n++
		}
	}
	return n
}

// AddInstance registers an instance in state with tags and returns its id.
// Running instances get a public address.
func (f *ComputeFixture) AddInstance(state string, tags map[string]string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID("i")
	inst := types.Instance{
		InstanceId:   aws.String(id),
		InstanceType: types.InstanceTypeT3Micro,
		State:        &types.InstanceState{Name: types.InstanceStateName(state)},
		LaunchTime:   aws.Time(time.Unix(1700000000, 0).UTC()),
	}
	if state == "running" {
		inst.PublicIpAddress = aws.String("203.0.113.20")
	}
	for _, k := range sortedKeys(tags) {
		inst.Tags = append(inst.Tags, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	f.instances[id] = &fixtureInstance{inst: inst, fixed: true}
	return id
}

// HasKeyPair reports whether name is registered.
func (f *ComputeFixture) HasKeyPair(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keyPairs[name]
	return ok
}

// AddKeyPair registers a key pair.
func (f *ComputeFixture) AddKeyPair(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyPairs[name] = f.newID("key")
}

func (f *ComputeFixture) stateFor(fi *fixtureInstance) string {
	if fi.fixed {
		return string(fi.inst.State.Name)
	}
	seq := f.StateSequence
	if len(seq) == 0 {
		return "pending"
	}
	idx := min(fi.polls, len(seq)-1)
	return seq[idx]
}

// API returns a MockAPI backed by the fixture.
func (f *ComputeFixture) API() *ec2.MockAPI {
	return &ec2.MockAPI{
		DescribeVpcsFunc: func(context.Context, *awsec2.DescribeVpcsInput) (*awsec2.DescribeVpcsOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("DescribeVpcs"); err != nil {
				return nil, err
			}
			out := &awsec2.DescribeVpcsOutput{}
			if f.VpcID != "" {
				out.Vpcs = []types.Vpc{{VpcId: aws.String(f.VpcID), IsDefault: aws.Bool(true)}}
			}
			return out, nil
		},
		DescribeSecurityGroupsFunc: func(_ context.Context, in *awsec2.DescribeSecurityGroupsInput) (*awsec2.DescribeSecurityGroupsOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("DescribeSecurityGroups"); err != nil {
				return nil, err
			}
			out := &awsec2.DescribeSecurityGroupsOutput{}
			if f.HideGroupsOnce {
				f.HideGroupsOnce = false
				return out, nil
			}
			name, vpcID := filterValue(in.Filters, "group-name"), filterValue(in.Filters, "vpc-id")
			for _, id := range sortedKeys(f.groups) {
				g := f.groups[id]
				if g.name == name && g.vpcID == vpcID {
					out.SecurityGroups = append(out.SecurityGroups, types.SecurityGroup{
						GroupId:       aws.String(g.id),
						GroupName:     aws.String(g.name),
						VpcId:         aws.String(g.vpcID),
						IpPermissions: toIPPermissions(g.perms),
					})
				}
			}
			return out, nil
		},
		CreateSecurityGroupFunc: func(_ context.Context, in *awsec2.CreateSecurityGroupInput) (*awsec2.CreateSecurityGroupOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("CreateSecurityGroup"); err != nil {
				return nil, err
			}
			name, vpcID := aws.ToString(in.GroupName), aws.ToString(in.VpcId)
			for _, g := range f.groups {
				if g.name == name && g.vpcID == vpcID {
					return nil, APIError(ec2.CodeDuplicateGroup)
				}
			}
			id := f.newID("sg")
			f.groups[id] = &fixtureGroup{id: id, name: name, vpcID: vpcID}
			return &awsec2.CreateSecurityGroupOutput{GroupId: aws.String(id)}, nil
		},
		AuthorizeSecurityGroupIngressFunc: func(_ context.Context, in *awsec2.AuthorizeSecurityGroupIngressInput) (*awsec2.AuthorizeSecurityGroupIngressOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("AuthorizeSecurityGroupIngress"); err != nil {
				return nil, err
			}
			g, ok := f.groups[aws.ToString(in.GroupId)]
			if !ok {
				return nil, APIError(ec2.CodeGroupNotFound)
			}
			var added []ec2.Permission
			for _, p := range in.IpPermissions {
				for _, r := range p.IpRanges {
					perm := ec2.Permission{
						Protocol: aws.ToString(p.IpProtocol),
						FromPort: aws.ToInt32(p.FromPort),
						ToPort:   aws.ToInt32(p.ToPort),
						CIDR:     aws.ToString(r.CidrIp),
					}
					for _, existing := range g.perms {
						if existing == perm {
							return nil, APIError(ec2.CodeDuplicatePermission)
						}
					}
					added = append(added, perm)
				}
			}
			g.perms = append(g.perms, added...)
			return &awsec2.AuthorizeSecurityGroupIngressOutput{Return: aws.Bool(true)}, nil
		},
		RunInstancesFunc: func(_ context.Context, in *awsec2.RunInstancesInput) (*awsec2.RunInstancesOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("RunInstances"); err != nil {
				return nil, err
			}
			f.LastRun = in
			id := f.newID("i")
			inst := types.Instance{
				InstanceId:   aws.String(id),
				InstanceType: in.InstanceType,
				State:        &types.InstanceState{Name: types.InstanceStateNamePending},
				LaunchTime:   aws.Time(time.Now().UTC()),
			}
			for _, spec := range in.TagSpecifications {
				inst.Tags = append(inst.Tags, spec.Tags...)
			}
			f.instances[id] = &fixtureInstance{inst: inst, polls: -f.NotFoundPolls}
			return &awsec2.RunInstancesOutput{Instances: []types.Instance{inst}}, nil
		},
		DescribeInstancesFunc: func(_ context.Context, in *awsec2.DescribeInstancesInput) (*awsec2.DescribeInstancesOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("DescribeInstances"); err != nil {
				return nil, err
			}
			ids := in.InstanceIds
			if len(ids) == 0 {
				ids = sortedKeys(f.instances)
			}
			var reservation types.Reservation
			for _, id := range ids {
				fi, ok := f.instances[id]
				if !ok {
					return nil, APIError(ec2.CodeInstanceNotFound)
				}
				if fi.polls < 0 {
					fi.polls++
					return nil, APIError(ec2.CodeInstanceNotFound)
				}
				inst := fi.inst
				inst.State = &types.InstanceState{Name: types.InstanceStateName(f.stateFor(fi))}
				if inst.State.Name == types.InstanceStateNameRunning && inst.PublicIpAddress == nil {
					inst.PublicIpAddress = aws.String("203.0.113.10")
				}
				fi.polls++
				reservation.Instances = append(reservation.Instances, inst)
			}
			return &awsec2.DescribeInstancesOutput{Reservations: []types.Reservation{reservation}}, nil
		},
		TerminateInstancesFunc: func(_ context.Context, in *awsec2.TerminateInstancesInput) (*awsec2.TerminateInstancesOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("TerminateInstances"); err != nil {
				return nil, err
			}
			for _, id := range in.InstanceIds {
				fi, ok := f.instances[id]
				if !ok {
					return nil, APIError(ec2.CodeInstanceNotFound)
				}
				fi.inst.State = &types.InstanceState{Name: types.InstanceStateNameShuttingDown}
				fi.fixed = true
			}
			return &awsec2.TerminateInstancesOutput{}, nil
		},
		DescribeKeyPairsFunc: func(_ context.Context, in *awsec2.DescribeKeyPairsInput) (*awsec2.DescribeKeyPairsOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("DescribeKeyPairs"); err != nil {
				return nil, err
			}
			out := &awsec2.DescribeKeyPairsOutput{}
			for _, name := range in.KeyNames {
				id, ok := f.keyPairs[name]
				if !ok {
					return nil, APIError(ec2.CodeKeyPairNotFound)
				}
				out.KeyPairs = append(out.KeyPairs, types.KeyPairInfo{KeyName: aws.String(name), KeyPairId: aws.String(id)})
			}
			return out, nil
		},
		ImportKeyPairFunc: func(_ context.Context, in *awsec2.ImportKeyPairInput) (*awsec2.ImportKeyPairOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("ImportKeyPair"); err != nil {
				return nil, err
			}
			name := aws.ToString(in.KeyName)
			if _, ok := f.keyPairs[name]; ok {
				return nil, APIError(ec2.CodeKeyPairDuplicate)
			}
			if len(in.PublicKeyMaterial) == 0 {
				return nil, APIError("InvalidKey.Format")
			}
			id := f.newID("key")
			f.keyPairs[name] = id
			return &awsec2.ImportKeyPairOutput{KeyName: aws.String(name), KeyPairId: aws.String(id)}, nil
		},
	}
}

func filterValue(filters []types.Filter, name string) string {
	for _, f := range filters {
		if aws.ToString(f.Name) == name && len(f.Values) > 0 {
			return f.Values[0]
		}
	}
	return ""
}

func toIPPermissions(perms []ec2.Permission) []types.IpPermission {
	out := make([]types.IpPermission, 0, len(perms))
	for _, p := range perms {
		out = append(out, types.IpPermission{
			IpProtocol: aws.String(p.Protocol),
			FromPort:   aws.Int32(p.FromPort),
			ToPort:     aws.Int32(p.ToPort),
			IpRanges:   []types.IpRange{{CidrIp: aws.String(p.CIDR)}},
		})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
