// Package credentials is the local password vault: a single SQLite table of
// (id, username, password) rows with a unique username.
//
// Besides the usual CRUD operations the repository offers live result
// streams. Watch and WatchOne emit the current rows immediately and again
// after every successful write made through the same repository (or one
// derived from it with WithTx), until their context ends.
//
//	repo := credentials.NewSQLiteRepository(db)
//	id, created, _ := repo.Upsert(ctx, "alice", "secret")
//	rows, _ := repo.Watch(ctx)
//	for list := range rows { ... }
package credentials
