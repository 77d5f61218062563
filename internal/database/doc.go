// Package database provides the data access layer for the archive store.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	├── store.go         # Write side used by the importer (upserts, counts, history)
//	├── accounts/        # Account listing, lookup and cascading delete
//	├── posts/           # Timeline queries, search, replies, calendar counts
//	├── imports/         # Import history, archive metadata, media, likes, bookmarks
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./fediarchive.db")
//
//	postsRepo := posts.NewRepository(db.DB)
//	page, total, err := postsRepo.ListByAccount(accountID, posts.Query{Desc: true})
//
// # Writes
//
// Database itself implements importers.Store. Every upsert batch runs in its
// own transaction and replaces rows with the same (account_id, id) key, so
// importing the same archive twice leaves the entity tables unchanged.
// DeleteAccount removes an account and every row it owns in one transaction.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add compile-time interface checks in internal/interfaces
package database
