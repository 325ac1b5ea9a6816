package compute

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/imamik/stratus/internal/platform/ec2"
	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/util/namelock"
)

// AnyIPv4 is the unrestricted source range opened for the web port.
const AnyIPv4 = "0.0.0.0/0"

// IngressRule is one ingress permission. It is comparable so rule sets are maps.
type IngressRule struct {
	Protocol   string
	FromPort   int32
	ToPort     int32
	SourceCIDR string
}

// SecurityGroupRecord describes a security group.
type SecurityGroupRecord struct {
	ID           string
	Name         string
	VpcID        string
	IngressRules []IngressRule
}

// WebRule returns the rule that opens port to everyone over TCP.
func WebRule(port int) IngressRule {
	return IngressRule{Protocol: "tcp", FromPort: int32(port), ToPort: int32(port), SourceCIDR: AnyIPv4}
}

// permSet indexes rules for membership checks.
type permSet map[IngressRule]struct{}

func newPermSet(perms []ec2.Permission) permSet {
	set := make(permSet, len(perms))
	for _, p := range perms {
		set[IngressRule{Protocol: p.Protocol, FromPort: p.FromPort, ToPort: p.ToPort, SourceCIDR: p.CIDR}] = struct{}{}
	}
	return set
}

// missing returns the wanted rules not yet in s, in input order.
func (s permSet) missing(wanted ...IngressRule) []ec2.Permission {
	var out []ec2.Permission
	for _, r := range wanted {
		if _, ok := s[r]; ok {
			continue
		}
		out = append(out, ec2.Permission{Protocol: r.Protocol, FromPort: r.FromPort, ToPort: r.ToPort, CIDR: r.SourceCIDR})
	}
	return out
}

// EnsureSecurityGroup returns the id of the group named name in vpcID,
// creating it if absent, and makes sure it admits TCP on port from anywhere.
// An empty vpcID selects the region's default VPC. Repeated calls never add a
// second copy of the rule.
//
// Without a Locker, concurrent callers in different processes may both create
// the group; the provider rejects the second create and this call then adopts
// the existing group.
func (p *Provisioner) EnsureSecurityGroup(ctx context.Context, name, vpcID string, port int) (groupID string, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opEnsureGroup, start, err) }()

	if name == "" {
		return "", &provisioning.ValidationError{Field: "security_group", Value: name, Reason: "name is required"}
	}
	if port < 1 || port > 65535 {
		return "", &provisioning.ValidationError{Field: "port", Value: strconv.Itoa(port), Reason: "must be between 1 and 65535"}
	}

	if vpcID == "" {
		vpcID, err = p.defaultVPC(ctx)
		if err != nil {
			return "", err
		}
	}

	err = namelock.With(p.locker, vpcID+"/"+name, func() error {
		groupID, err = p.ensureGroup(ctx, name, vpcID, port)
		return err
	})
	if err != nil {
		provisioning.LogResourceFailed(p.observer, phase, "security_group", name, err)
		return "", err
	}
	return groupID, nil
}

func (p *Provisioner) ensureGroup(ctx context.Context, name, vpcID string, port int) (string, error) {
	group, err := p.findGroup(ctx, name, vpcID)
	if err != nil {
		return "", err
	}

	var existing permSet
	if group != nil {
		provisioning.LogResourceExists(p.observer, phase, "security_group", name, group.ID)
		existing = newPermSet(group.Ingress)
	} else {
		group, err = p.createGroup(ctx, name, vpcID)
		if err != nil {
			return "", err
		}
		existing = newPermSet(group.Ingress)
	}

	toAdd := existing.missing(WebRule(port))
	if len(toAdd) == 0 {
		return group.ID, nil
	}

	err = p.throttled(ctx, opEnsureGroup, func() error {
		return p.client.AuthorizeIngress(ctx, group.ID, toAdd)
	})
	switch {
	case err == nil:
		provisioning.LogResourceCreated(p.observer, phase, "ingress_rule", name, group.ID)
	case ec2.IsDuplicatePermission(err):
		// Added by a concurrent caller between our read and write.
	default:
		return "", p.classify(ctx, "AuthorizeSecurityGroupIngress", err)
	}
	return group.ID, nil
}

// createGroup creates the group, adopting the existing one when a racing
// caller created it first.
func (p *Provisioner) createGroup(ctx context.Context, name, vpcID string) (*ec2.SecurityGroup, error) {
	provisioning.LogResourceCreating(p.observer, phase, "security_group", name)

	var id string
	err := p.throttled(ctx, opEnsureGroup, func() error {
		var err error
		id, err = p.client.CreateSecurityGroup(ctx, name, "stratus web access", vpcID)
		return err
	})
	switch {
	case err == nil:
		provisioning.LogResourceCreated(p.observer, phase, "security_group", name, id)
		return &ec2.SecurityGroup{ID: id, Name: name, VpcID: vpcID}, nil
	case ec2.IsDuplicateGroup(err):
		group, findErr := p.findGroup(ctx, name, vpcID)
		if findErr != nil {
			return nil, findErr
		}
		if group == nil {
			return nil, &provisioning.ConflictError{Name: name, Code: ec2.CodeDuplicateGroup, Err: err}
		}
		provisioning.LogResourceExists(p.observer, phase, "security_group", name, group.ID)
		return group, nil
	default:
		return nil, p.classify(ctx, "CreateSecurityGroup", err)
	}
}

func (p *Provisioner) findGroup(ctx context.Context, name, vpcID string) (*ec2.SecurityGroup, error) {
	var group *ec2.SecurityGroup
	err := p.throttled(ctx, opEnsureGroup, func() error {
		var err error
		group, err = p.client.FindSecurityGroup(ctx, name, vpcID)
		return err
	})
	if err != nil {
		return nil, p.classify(ctx, "DescribeSecurityGroups", err)
	}
	return group, nil
}

func (p *Provisioner) defaultVPC(ctx context.Context) (string, error) {
	var vpcID string
	err := p.throttled(ctx, opEnsureGroup, func() error {
		var err error
		vpcID, err = p.client.DefaultVPC(ctx)
		return err
	})
	switch {
	case err == nil:
		return vpcID, nil
	case errors.Is(err, ec2.ErrNoDefaultVPC):
		return "", &provisioning.NotFoundError{Resource: "vpc", Name: "default", Err: err}
	default:
		return "", p.classify(ctx, "DescribeVpcs", err)
	}
}

// Group returns the record of the named group, or NotFoundError.
func (p *Provisioner) Group(ctx context.Context, name, vpcID string) (SecurityGroupRecord, error) {
	if vpcID == "" {
		var err error
		if vpcID, err = p.defaultVPC(ctx); err != nil {
			return SecurityGroupRecord{}, err
		}
	}
	group, err := p.findGroup(ctx, name, vpcID)
	if err != nil {
		return SecurityGroupRecord{}, err
	}
	if group == nil {
		return SecurityGroupRecord{}, &provisioning.NotFoundError{Resource: "security_group", Name: name}
	}

	record := SecurityGroupRecord{ID: group.ID, Name: group.Name, VpcID: group.VpcID}
	for _, perm := range group.Ingress {
		record.IngressRules = append(record.IngressRules, IngressRule{
			Protocol:   perm.Protocol,
			FromPort:   perm.FromPort,
			ToPort:     perm.ToPort,
			SourceCIDR: perm.CIDR,
		})
	}
	return record, nil
}

// throttled runs fn with the single throttling retry.
func (p *Provisioner) throttled(ctx context.Context, operation string, fn func() error) error {
	return provisioning.CallThrottled(ctx, p.observer, phase, operation, p.throttleDelay, ec2.IsThrottled, fn)
}

// classify maps a compute failure to the taxonomy.
func (p *Provisioner) classify(ctx context.Context, operation string, err error) error {
	switch provisioning.Kind(err) {
	case provisioning.KindTransient, provisioning.KindCancelled:
		return err
	}
	return provisioning.Cancelled(ctx, operation, provisioning.NewRemoteError(operation, err))
}
