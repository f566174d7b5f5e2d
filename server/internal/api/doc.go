// Package api implements the HTTP REST API for holecheck-server.
//
// New(store, cfg) returns an http.Handler that serves:
//
//	GET  /api/v1/health     : status, live run count, active thresholds
//	POST /api/v1/evaluate   : flags, scan counts and hints for one part
//	POST /api/v1/annotate   : flags a table, stores and returns the run
//	POST /api/v1/summarize  : aggregate report of an annotated table (422 if unflagged)
//	GET  /api/v1/runs       : all live runs, newest first
//	POST /api/v1/runs       : store a run reported by an annotator (201)
//	GET  /api/v1/runs/{id}  : single run; 404 if unknown or stale
//	GET  /metrics           : Prometheus counters and Go runtime metrics
//
// All /api/v1 endpoints respond with Content-Type: application/json. Every
// route except health and metrics sits behind the API key middleware.
// Request bodies over max_body_bytes get 413; malformed JSON gets 400.
//
// JSON types are defined in types.go.
package api
