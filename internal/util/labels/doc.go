// Package labels provides consistent tagging for launched compute resources.
//
// Every instance carries a Name tag plus the stratus.io managed-by key, so
// resources created by this tool can be told apart from hand-made ones.
package labels
