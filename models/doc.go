// Package models holds the persisted roster entities and their table
// registration.
package models
