// Package database opens bun connections for mysql, postgres and sqlite,
// applies versioned migrations with foreign keys, seeds data from SQL files
// and classifies driver errors.
package database
