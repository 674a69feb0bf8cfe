// Package api implements the HTTP transport: a mux-based server that binds
// registered sources and unions to endpoints, decodes pagination and filter
// input from the wire, and maps structured query failures to HTTP statuses.
package api
