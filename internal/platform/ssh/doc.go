// Package ssh runs commands on launched instances over SSH.
//
// It authenticates with the private key written when a key pair is created
// and retries the dial while the instance finishes booting.
package ssh
