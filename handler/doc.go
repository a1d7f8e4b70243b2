// Package handler exposes entities over JSON HTTP endpoints: paged lists
// that carry their own return state, CRUD guarded by the role policy, and
// spreadsheet import.
package handler
