// Package storage defines persistence contracts and record types for roster
// state. Implementations live in subpackages; the service depends only on the
// interfaces declared here.
package storage
