// Package component defines the lifecycle interface shared by the
// collector's infrastructure: database connections, Redis clients and
// storage backends.
//
// A Registry starts components in registration order and stops them in
// reverse, so a storage backend registered after its database is closed
// before the database.
package component
