// Package memory provides a process-local principal and session store.
//
// It is intended for tests, examples, and the sessiond dev mode. Data does
// not survive a restart.
package memory
