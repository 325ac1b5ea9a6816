// Package provisioning holds what the resource orchestrators share.
//
// The orchestrators live in focused subpackages:
//   - storage/: bucket lifecycle (create, upload, drain, delete)
//   - compute/: security groups, bootstrap scripts, instance launch and wait
//   - mirror/: repository clones served as static files
//
// This root package contains the typed error taxonomy, the Observer used for
// structured events, and the prometheus metrics recorded by every operation.
package provisioning
