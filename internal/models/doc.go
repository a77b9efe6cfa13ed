// Package models defines domain entities shared by the CLI, the dashboard and persistence.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): lightweight structs mapped from the music service
//   - [Playlist] : basic playlist metadata
//   - [PlaylistExport] : playlist with its track listing
//   - [Track] : song metadata
//   - [Playback] : the user's current playback state
//   - [User] : the authenticated account
//
// 2. Persistent Entities: database-backed models
//   - [DrainEntry] : one queued request the dashboard resolved against the service
//
// Persistent entities implement the [Model] interface and are stored through a [Repository].
package models
