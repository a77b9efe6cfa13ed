// Package tasks runs the long-lived operations behind the CLI and dashboard.
//
// # Drain
//
// [DrainEngine] is the queue consumer. One cycle ([DrainEngine.Run]):
//
//  1. Snapshots the queue file; a missing file ends the cycle quietly and an unreadable one
//     ends it with [queue.ErrStoreCorrupt]
//  2. Walks pending requests in insertion order, searching each with a single-result query
//  3. Adds every match to the playlist picked by [services.TargetResolver]
//  4. Marks every walked request processed, matched or not, in one write
//
// Any service error aborts the cycle before step 4. Tracks already added stay added and
// their requests stay pending, so the next cycle adds them again.
//
// [DrainEngine.Drain] wraps Run for timers: it logs instead of returning errors.
//
// # Bulk Export
//
// [Exporter.BulkExport] fetches playlist tracks behind a rate limiter and hands them to a
// worker pool that renders them via the formatter package, then writes a manifest.
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Sends never block; updates are
// dropped when the channel is full.
package tasks
