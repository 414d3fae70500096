// Package main hosts the course crawler entrypoint.
//
// Architecture overview:
//   - Traversal engine: internal/crawler.Engine drains a FIFO queue breadth-first, deduplicating items by
//     (content_type, item_id) and enforcing a hard depth ceiling. Per-item failures are logged and absorbed so
//     one broken page never aborts a run.
//   - Handlers: internal/handler registers one handler per content type (syllabus, module listings and modules,
//     assignments, classic and New Quizzes, wiki pages, discussions, announcements, files, external links). Each
//     handler fetches via the Canvas REST client, short-circuits locked content into a metadata stub, and writes
//     a normalized JSON record plus raw HTML where a body exists.
//   - Link discovery: record bodies are scanned for hyperlinks; same-host Canvas URLs are classified into typed
//     child items, everything else absolute becomes a terminal external_link fetched once for auditing.
//   - Storage: internal/storage writes all output under one base directory through afero, streams file downloads,
//     and expands zip attachments recursively with sandboxed member paths and member/byte/depth budgets.
//   - Plumbing: Viper populates config from flags, env (CANVASCRAWL_*) and an optional config file; zap provides
//     structured logging; Prometheus counters track processed, failed and rejected items plus archive activity.
//     An optional Postgres ledger rows every persisted artifact and an optional Pub/Sub topic receives compact
//     artifact events for downstream conversion.
//
// Run locally: go run ./cmd/canvascrawler crawl --course-id 1234 --token $TOKEN --output-dir ./out
package main
