// Package keygen generates SSH key pairs for instance access.
//
// Private keys are produced in PEM format and public keys in OpenSSH
// authorized_keys format, which is what the compute control plane accepts
// when importing a key pair.
package keygen
