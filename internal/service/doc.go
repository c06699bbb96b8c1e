// Package service is the HTTP front end of the checker.
//
// Routes:
//
//	POST /api/query       {"query": "...", "components": ["A", "B"]} -> [Result, ...]
//	GET  /api/components  automata of the loaded model
//	GET  /api/health      liveness and the model fingerprint
//	GET  /api/resource    process CPU and resident memory
//	GET  /metrics         Prometheus metrics
//
// The model is loaded once and never changes; save-as results only live
// for the request that produced them. Queries of one request run in order,
// requests run concurrently up to the configured number of workers.
//
// Every response carries an X-Request-Id header. A request id sent by the
// client is kept, otherwise one is generated.
package service
