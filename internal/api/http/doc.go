// Package http implements the handlers of the read-only process API.
//
// Routes (registered by package server):
//
//	GET /                    service banner
//	GET /health              liveness and child counts per state
//	GET /processes           reaper table
//	GET /processes/:pid      one spawned child, zombies included
//	GET /processes/:pid/fds  descriptor table of any pid
//	GET /stats               JSON metrics snapshot
package http
