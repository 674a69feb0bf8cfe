// Package middleware provides HTTP middleware applied ahead of endpoint
// handlers, currently bearer-token authentication.
package middleware
