// Package cmd defines the rider-enricher CLI.
//
// Architecture overview:
//   - Input: the classics and grand-tour commands read the rider list from the Scorito game API
//     (internal/scorito). Grand tour records are filtered to active riders and reshaped: qualities become
//     one column each, the type code becomes a label, the team name is added and identifier columns dropped.
//   - Pipeline: internal/enricher.Engine partitions riders into windows of pcs.window_size. Each window
//     is first resolved against the cache (internal/cache, sqlite by default); misses are fetched
//     concurrently through the Colly fetcher and parsed by internal/extract. A profile that reports
//     "Page not found" is recovered through the name search. A cool-down separates windows that hit
//     the network. Any non-200 profile response aborts the run.
//   - Output: enriched riders are written as CSV (internal/output/csv) with a header built from the union
//     of all field names.
//   - Plumbing: Viper loads config (ENRICHER_* env overrides), zap logs carry a per-run run_id, and
//     Prometheus counters are optionally served on metrics.addr or pushed to metrics.push_url.
//
// Quick checklist:
//   - Run the classics game: go run . classics --config config.yaml
//   - Run the grand tour game: go run . grand-tour --race-id 171 -o grand-tour.csv
//   - Inspect a cached rider: go run . cache get Wout "van Aert"
package cmd
