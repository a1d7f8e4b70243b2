// Package repository provides a generic repository abstraction built on Bun
// for CRUD operations, transactions, upserts and paging sources that push
// filtering and ordering down to SQL.
package repository
