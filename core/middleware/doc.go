// Package middleware groups the HTTP middleware used by the server.
//
//   - rayid assigns every request a correlation id and exposes it both in
//     the response headers and in the request locals for logging.
//   - auth guards the API with a shared-key check.
package middleware
