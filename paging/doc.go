// Package paging produces one filtered, sorted page of a collection together
// with its pagination metadata, clamping out-of-range page numbers.
package paging
