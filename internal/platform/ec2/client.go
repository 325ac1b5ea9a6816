package ec2

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

// ErrNoDefaultVPC is returned when the region has no default VPC.
var ErrNoDefaultVPC = errors.New("no default VPC in region")

// Permission is one ingress rule. It is comparable.
type Permission struct {
	Protocol string
	FromPort int32
	ToPort   int32
	CIDR     string
}

// SecurityGroup describes an existing security group.
type SecurityGroup struct {
	ID      string
	Name    string
	VpcID   string
	Ingress []Permission
}

// Instance describes an instance as reported by the API.
type Instance struct {
	ID         string
	Type       string
	State      string
	PublicIP   string
	Tags       map[string]string
	LaunchTime time.Time
}

// RunInput holds the parameters of a single-instance launch.
type RunInput struct {
	ImageID          string
	InstanceType     string
	KeyName          string
	SecurityGroupIDs []string
	// UserData is the raw script; it is base64-encoded on the wire.
	UserData string
	Tags     map[string]string
}

// Client wraps the EC2 API.
type Client struct {
	ec2 API
}

// NewClient creates a Client over api.
func NewClient(api API) *Client {
	return &Client{ec2: api}
}

// DefaultVPC returns the id of the region's default VPC.
func (c *Client) DefaultVPC(ctx context.Context) (string, error) {
	out, err := c.ec2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{
		Filters: []types.Filter{{Name: aws.String("is-default"), Values: []string{"true"}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe VPCs: %w", err)
	}
	for _, vpc := range out.Vpcs {
		if id := aws.ToString(vpc.VpcId); id != "" {
			return id, nil
		}
	}
	return "", ErrNoDefaultVPC
}

// FindSecurityGroup looks a group up by name within a VPC. It returns nil when
// no group matches.
func (c *Client) FindSecurityGroup(ctx context.Context, name, vpcID string) (*SecurityGroup, error) {
	out, err := c.ec2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []types.Filter{
			{Name: aws.String("group-name"), Values: []string{name}},
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe security group %s: %w", name, err)
	}
	if len(out.SecurityGroups) == 0 {
		return nil, nil
	}

	sg := out.SecurityGroups[0]
	return &SecurityGroup{
		ID:      aws.ToString(sg.GroupId),
		Name:    aws.ToString(sg.GroupName),
		VpcID:   aws.ToString(sg.VpcId),
		Ingress: flattenPermissions(sg.IpPermissions),
	}, nil
}

// CreateSecurityGroup creates a group and returns its id.
func (c *Client) CreateSecurityGroup(ctx context.Context, name, description, vpcID string) (string, error) {
	out, err := c.ec2.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String(description),
		VpcId:       aws.String(vpcID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create security group %s: %w", name, err)
	}
	return aws.ToString(out.GroupId), nil
}

// AuthorizeIngress adds ingress rules to a group.
func (c *Client) AuthorizeIngress(ctx context.Context, groupID string, perms []Permission) error {
	if len(perms) == 0 {
		return nil
	}
	ipPerms := make([]types.IpPermission, 0, len(perms))
	for _, p := range perms {
		ipPerms = append(ipPerms, types.IpPermission{
			IpProtocol: aws.String(p.Protocol),
			FromPort:   aws.Int32(p.FromPort),
			ToPort:     aws.Int32(p.ToPort),
			IpRanges:   []types.IpRange{{CidrIp: aws.String(p.CIDR)}},
		})
	}

	_, err := c.ec2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(groupID),
		IpPermissions: ipPerms,
	})
	if err != nil {
		return fmt.Errorf("failed to authorize ingress on %s: %w", groupID, err)
	}
	return nil
}

// RunInstance launches exactly one instance with a public address on its
// primary interface.
func (c *Client) RunInstance(ctx context.Context, in RunInput) (Instance, error) {
	nic := types.InstanceNetworkInterfaceSpecification{
		DeviceIndex:              aws.Int32(0),
		AssociatePublicIpAddress: aws.Bool(true),
		DeleteOnTermination:      aws.Bool(true),
		Groups:                   in.SecurityGroupIDs,
	}

	input := &ec2.RunInstancesInput{
		ImageId:           aws.String(in.ImageID),
		InstanceType:      types.InstanceType(in.InstanceType),
		MinCount:          aws.Int32(1),
		MaxCount:          aws.Int32(1),
		NetworkInterfaces: []types.InstanceNetworkInterfaceSpecification{nic},
	}
	if in.KeyName != "" {
		input.KeyName = aws.String(in.KeyName)
	}
	if in.UserData != "" {
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(in.UserData)))
	}
	if len(in.Tags) > 0 {
		input.TagSpecifications = []types.TagSpecification{{
			ResourceType: types.ResourceTypeInstance,
			Tags:         toTags(in.Tags),
		}}
	}

	out, err := c.ec2.RunInstances(ctx, input)
	if err != nil {
		return Instance{}, fmt.Errorf("failed to run instance: %w", err)
	}
	if len(out.Instances) != 1 {
		return Instance{}, fmt.Errorf("run instances returned %d instances, want 1", len(out.Instances))
	}
	return flattenInstance(out.Instances[0]), nil
}

// DescribeInstance returns one instance by id.
func (c *Client) DescribeInstance(ctx context.Context, id string) (Instance, error) {
	out, err := c.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}})
	if err != nil {
		return Instance{}, fmt.Errorf("failed to describe instance %s: %w", id, err)
	}
	for _, r := range out.Reservations {
		for _, inst := range r.Instances {
			if aws.ToString(inst.InstanceId) == id {
				return flattenInstance(inst), nil
			}
		}
	}
	return Instance{}, fmt.Errorf("instance %s not in describe output: %w", id, errInstanceMissing)
}

// errInstanceMissing mirrors the API's not-found code for an empty describe result.
var errInstanceMissing error = &smithy.GenericAPIError{
	Code:    CodeInstanceNotFound,
	Message: "instance not returned",
	Fault:   smithy.FaultClient,
}

// ListInstances returns every instance in the region.
func (c *Client) ListInstances(ctx context.Context) ([]Instance, error) {
	var instances []Instance
	paginator := ec2.NewDescribeInstancesPaginator(c.ec2, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances: %w", err)
		}
		for _, r := range page.Reservations {
			for _, inst := range r.Instances {
				instances = append(instances, flattenInstance(inst))
			}
		}
	}
	return instances, nil
}

// TerminateInstance requests termination of one instance.
func (c *Client) TerminateInstance(ctx context.Context, id string) error {
	if _, err := c.ec2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{id}}); err != nil {
		return fmt.Errorf("failed to terminate instance %s: %w", id, err)
	}
	return nil
}

// KeyPairExists reports whether a key pair with name is registered.
func (c *Client) KeyPairExists(ctx context.Context, name string) (bool, error) {
	out, err := c.ec2.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{KeyNames: []string{name}})
	if err != nil {
		if IsKeyPairNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to describe key pair %s: %w", name, err)
	}
	return len(out.KeyPairs) > 0, nil
}

// ImportKeyPair registers an OpenSSH public key and returns the key pair id.
func (c *Client) ImportKeyPair(ctx context.Context, name string, publicKey []byte) (string, error) {
	out, err := c.ec2.ImportKeyPair(ctx, &ec2.ImportKeyPairInput{
		KeyName:           aws.String(name),
		PublicKeyMaterial: publicKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to import key pair %s: %w", name, err)
	}
	return aws.ToString(out.KeyPairId), nil
}

func flattenPermissions(perms []types.IpPermission) []Permission {
	var out []Permission
	for _, p := range perms {
		proto := aws.ToString(p.IpProtocol)
		from := aws.ToInt32(p.FromPort)
		to := aws.ToInt32(p.ToPort)
		for _, r := range p.IpRanges {
			out = append(out, Permission{Protocol: proto, FromPort: from, ToPort: to, CIDR: aws.ToString(r.CidrIp)})
		}
	}
	return out
}

func flattenInstance(inst types.Instance) Instance {
	out := Instance{
		ID:         aws.ToString(inst.InstanceId),
		Type:       string(inst.InstanceType),
		PublicIP:   aws.ToString(inst.PublicIpAddress),
		Tags:       make(map[string]string, len(inst.Tags)),
		LaunchTime: aws.ToTime(inst.LaunchTime),
	}
	if inst.State != nil {
		out.State = string(inst.State.Name)
	}
	for _, t := range inst.Tags {
		out.Tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return out
}

func toTags(tags map[string]string) []types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}
