// Package store keeps recent annotation runs in memory so clients can fetch
// a report after the request that produced it. Entries expire after a TTL;
// nothing is persisted.
package store
