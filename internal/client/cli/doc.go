// Package cli provides the interactive forttask command-line client.
//
// It drives the household screens from a REPL: sign in (with optional
// credential auto-fill from the local vault), print one screen at a time,
// or watch a screen and re-render it whenever the backend pushes a live
// update. A background watcher probes the backend and switches the
// online/offline mode shown in the prompt.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
