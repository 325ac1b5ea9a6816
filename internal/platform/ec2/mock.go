package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// MockAPI is a function-field implementation of API for tests.
// Calling a method whose Func is nil returns an error.
type MockAPI struct {
	DescribeVpcsFunc                  func(ctx context.Context, in *ec2.DescribeVpcsInput) (*ec2.DescribeVpcsOutput, error)
	DescribeSecurityGroupsFunc        func(ctx context.Context, in *ec2.DescribeSecurityGroupsInput) (*ec2.DescribeSecurityGroupsOutput, error)
	CreateSecurityGroupFunc           func(ctx context.Context, in *ec2.CreateSecurityGroupInput) (*ec2.CreateSecurityGroupOutput, error)
	AuthorizeSecurityGroupIngressFunc func(ctx context.Context, in *ec2.AuthorizeSecurityGroupIngressInput) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
	RunInstancesFunc                  func(ctx context.Context, in *ec2.RunInstancesInput) (*ec2.RunInstancesOutput, error)
	DescribeInstancesFunc             func(ctx context.Context, in *ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error)
	TerminateInstancesFunc            func(ctx context.Context, in *ec2.TerminateInstancesInput) (*ec2.TerminateInstancesOutput, error)
	DescribeKeyPairsFunc              func(ctx context.Context, in *ec2.DescribeKeyPairsInput) (*ec2.DescribeKeyPairsOutput, error)
	ImportKeyPairFunc                 func(ctx context.Context, in *ec2.ImportKeyPairInput) (*ec2.ImportKeyPairOutput, error)
}

var _ API = (*MockAPI)(nil)

func notConfigured(method string) error {
	return fmt.Errorf("MockAPI.%s not configured", method)
}

func (m *MockAPI) DescribeVpcs(ctx context.Context, in *ec2.DescribeVpcsInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	if m.DescribeVpcsFunc == nil {
		return nil, notConfigured("DescribeVpcs")
	}
	return m.DescribeVpcsFunc(ctx, in)
}

func (m *MockAPI) DescribeSecurityGroups(ctx context.Context, in *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	if m.DescribeSecurityGroupsFunc == nil {
		return nil, notConfigured("DescribeSecurityGroups")
	}
	return m.DescribeSecurityGroupsFunc(ctx, in)
}

func (m *MockAPI) CreateSecurityGroup(ctx context.Context, in *ec2.CreateSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	if m.CreateSecurityGroupFunc == nil {
		return nil, notConfigured("CreateSecurityGroup")
	}
	return m.CreateSecurityGroupFunc(ctx, in)
}

func (m *MockAPI) AuthorizeSecurityGroupIngress(ctx context.Context, in *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	if m.AuthorizeSecurityGroupIngressFunc == nil {
		return nil, notConfigured("AuthorizeSecurityGroupIngress")
	}
	return m.AuthorizeSecurityGroupIngressFunc(ctx, in)
}

func (m *MockAPI) RunInstances(ctx context.Context, in *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	if m.RunInstancesFunc == nil {
		return nil, notConfigured("RunInstances")
	}
	return m.RunInstancesFunc(ctx, in)
}

func (m *MockAPI) DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	if m.DescribeInstancesFunc == nil {
		return nil, notConfigured("DescribeInstances")
	}
	return m.DescribeInstancesFunc(ctx, in)
}

func (m *MockAPI) TerminateInstances(ctx context.Context, in *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	if m.TerminateInstancesFunc == nil {
		return nil, notConfigured("TerminateInstances")
	}
	return m.TerminateInstancesFunc(ctx, in)
}

func (m *MockAPI) DescribeKeyPairs(ctx context.Context, in *ec2.DescribeKeyPairsInput, _ ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error) {
	if m.DescribeKeyPairsFunc == nil {
		return nil, notConfigured("DescribeKeyPairs")
	}
	return m.DescribeKeyPairsFunc(ctx, in)
}

func (m *MockAPI) ImportKeyPair(ctx context.Context, in *ec2.ImportKeyPairInput, _ ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error) {
	if m.ImportKeyPairFunc == nil {
		return nil, notConfigured("ImportKeyPair")
	}
	return m.ImportKeyPairFunc(ctx, in)
}
