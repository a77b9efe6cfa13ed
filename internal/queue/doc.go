// Package queue implements the shared song-request queue: a single JSON file that independent
// producer processes append to and the dashboard's consumer drains.
//
// # File Format
//
// The store is one indented JSON array of [Record] objects with exactly the fields
// song, bot, timestamp (seconds since epoch, fractional) and status ("pending" or
// "processed"). Insertion order is the only ordering signal. Records are never deleted and
// the file has no size bound.
//
// # Recovery
//
// A missing or unparseable store reads as [ErrStoreCorrupt] or [fs.ErrNotExist]. [Store.Enqueue]
// treats both as an empty store, so appending to a corrupt file discards its previous content.
// Consumers abort the cycle instead.
//
// # Locking
//
// Every read-modify-write takes an advisory flock(2) on "<path>.lock" and every write goes
// through a temp file and rename, so a reader never sees a half-written array. Processes
// that write the file without taking the lock (older producers) can still race with us; the
// file format is unchanged so they keep working.
//
// The consumer does not hold the lock while it talks to the music service. It takes a
// [Store.Snapshot], does its work, then calls [Store.MarkProcessed], which re-reads the file
// under the lock and flips statuses by index. Appends made in the meantime are preserved.
package queue
