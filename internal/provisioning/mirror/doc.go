// Package mirror clones source repositories into the local workspace and
// resolves request paths inside them for static serving.
//
// Every clone gets a fresh directory that is never reused. A metadata file
// next to each tree lets mirrors be rediscovered after a restart.
package mirror
