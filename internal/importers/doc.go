// Package importers turns an exported activity-stream archive into stored
// entities.
//
// # Architecture
//
// One import runs in two phases:
//
//	archive bytes → container → activitypub decoders → drafts   (no writes)
//	drafts → dedupe → Store (delete for replace, batched upserts) → account + history
//
// Nothing is written until every required document (actor, outbox) has decoded,
// so a broken archive leaves the store untouched. Once writing starts the import
// runs to completion or to its first store error.
//
// # Strategies
//
// When the archive's actor already exists locally the ConflictResolver picks a
// strategy:
//
//   - replace: delete the account's posts, likes, bookmarks and media, then insert.
//   - merge: upsert by id, keeping rows the archive does not mention, then
//     recount the account's rows.
//
// A first import, or an import without a resolver, uses replace.
//
// # Example Usage
//
//	imp := importers.NewImporter(db, activitypub.NewDecoder(100, 8), importers.DefaultBatchSizes())
//	result, err := imp.ImportArchive(ctx, data, "export.zip", importers.Options{
//		ResolveConflict: importers.FixedStrategy(entities.ImportStrategyMerge),
//	})
package importers
