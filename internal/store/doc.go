// Package store defines the persistence interfaces for the application's
// entities and shared database plumbing (DBTX abstraction, transaction
// helper, sentinel errors). Concrete implementations live in
// internal/platform/postgres.
package store
