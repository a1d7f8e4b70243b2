// Package auth holds roles, the action policy table, password hashing and
// bearer tokens.
package auth
