// Package importer turns uploaded spreadsheets into rows and reconciles
// candidate records against keys that are already persisted.
package importer
