// Package storage provides the durable key/value store that backs the client
// session.
//
// Three backends implement Storage: a JSON file guarded by an advisory lock,
// a SQLite table, and an in-process map. Values are opaque strings; the
// session package decides what they mean. A missing key is never an error,
// and removing a missing key is a no-op.
package storage
