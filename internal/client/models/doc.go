// Package models defines the client-side data models: the backend payloads
// shown by the screens, the user profile used for household lookup and the
// locally stored vault credential.
//
// Backend timestamps are UTC strings in the 2006-01-02T15:04:05.000Z layout.
// The payload types keep them as strings and expose display helpers instead,
// so an unparseable value degrades to a placeholder text rather than failing
// the whole decode.
package models
