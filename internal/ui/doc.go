// Package ui implements the terminal DJ dashboard using bubbletea's Elm architecture.
//
// The screen has a playlist sidebar and a main column with the now-playing panel, playback
// controls, the "Live DJ Feed" and a search box. Pressing enter on a playlist starts it,
// p/space/n map to previous, play-pause and next, and / focuses search; submitting adds the top
// match to the target playlist.
//
// Two timers drive background work. Every drain interval the [Model] asks the
// tasks.DrainEngine for a cycle, and every playback interval it refreshes the player state.
// When a queue watcher channel is supplied, each change triggers an extra cycle so requests
// show up without waiting for the next tick. The engine skips overlapping cycles itself.
//
// Service calls run inside tea.Cmd functions and report back through small message structs, so
// Update never blocks. Logging goes to the logger in [Options]; the caller points it at a file
// because the dashboard owns the terminal.
package ui
