// Package catalog provides the HTTP client for the leasing platform's
// vehicle catalog API.
//
// The client authenticates with the OAuth2 client-credentials flow and
// exposes the five catalog operations the synchronization engine needs:
// list, create, update, price change and close. Every failure is classified
// as transient (network errors, rate limiting, 5xx) or permanent (other
// 4xx), which the executor maps onto its retry policy.
package catalog
