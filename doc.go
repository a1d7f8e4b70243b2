// Package gamesroster is the roster administration core: entity
// descriptors and the generic service that lists, edits and imports them.
package gamesroster
