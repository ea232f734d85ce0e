// Package enricher implements the rider enrichment pipeline: cache-first
// batched fetching of profile pages, content extraction, the search-based
// fallback for unresolved profiles, and the assembly of enriched records.
package enricher
