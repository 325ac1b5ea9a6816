// Package cloud builds the provider clients shared by the orchestrators.
//
// A [Factory] is created once per process from the loaded configuration and
// injected into the storage and compute managers. It holds nothing but the
// resolved region, credentials and endpoint overrides.
package cloud
