// Package patron resolves externally-visible patron identifiers to the
// backend's internal patron ids, caching resolved ids for the life of the
// process (or a configured TTL).
package patron
