// Package repositories implements SQLite persistence for the dashboard's drain history.
//
// [DrainLogRepository] records every request the consumer resolved, whether a track was added
// or nothing matched. The dashboard seeds its feed from it and the history command reads it back.
//
// Sequence numbers provide stable ordering independent of UUIDs and creation timestamps.
// [NextSequence] bumps a per-table counter inside the same transaction as the insert.
package repositories
