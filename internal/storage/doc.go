// Package storage keeps job metadata and a mirror of the configured queues
// in Postgres. Redis holds only job ids; this store is the source of truth.
package storage
