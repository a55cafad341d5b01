// Package postgres stores principals and their refresh digests in PostgreSQL
// using pgx.
//
// The schema lives in migrations/ and is applied by [Store.Migrate]. Refresh
// rotation is a single conditional UPDATE, so concurrent rotations of the
// same token serialize on the row lock and only one of them matches.
package postgres
