// Package naming provides consistent naming functions for managed cloud resources.
//
// Buckets that collide with a name owned elsewhere are rebound as
// {requested}-{6char}, instances default to stratus-{6char}, and repository
// mirrors live under repo-{uuid}. The random suffix alphabet is restricted to
// lowercase letters and digits so derived names stay provider-legal.
package naming
