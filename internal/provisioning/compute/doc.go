// Package compute provisions web-serving instances.
//
// It ensures the security group that exposes the web port, renders the
// first-boot script, launches exactly one instance per request and polls it
// until it runs. All provider access goes through platform/ec2.
package compute
