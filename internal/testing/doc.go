// Package testing provides shared fakes, builders, and helpers for unit tests.
//
// This package centralizes the in-memory provider doubles used across packages:
//   - ObjectStore: object storage behind s3.MockAPI
//   - ComputeFixture: compute control plane behind ec2.MockAPI
//   - RecordingObserver: captures orchestration events
//   - ConfigBuilder: fluent builder for test configurations
//
// Usage:
//
//	store := testutil.NewObjectStore()
//	client := s3.NewClient(store.API(), "eu-west-3")
//
//	cfg := testutil.NewConfigBuilder().
//	    WithRegion("us-east-1").
//	    WithWorkspace(t.TempDir()).
//	    Build()
package testing
