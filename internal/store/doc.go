// Package store defines the persistence contract for extracted documents.
// Implementations live in subpackages; this package must not import database
// drivers or concrete clients.
package store
