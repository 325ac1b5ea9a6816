// Package ec2 wraps the compute API used by the instance provisioner.
//
// Security groups, instances and key pairs are flattened into small value
// types. [Permission] is comparable so ingress rule sets can be diffed as maps.
package ec2
