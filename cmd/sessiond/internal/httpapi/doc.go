// Package httpapi exposes the session engine over HTTP with chi.
//
// Routes live under a configurable base path; /healthz and the metrics
// endpoint sit at the root. Every JSON response uses the same envelope:
//
//	{"statusCode": 200, "data": {...}, "message": "...", "success": true}
package httpapi
