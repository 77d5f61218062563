// Package activitypub decodes the documents of an exported activity-stream
// archive into entity drafts.
//
// An export holds an actor document (actor.json), an outbox of activities
// (outbox.json), optional likes.json and bookmarks.json collections, and a
// media_attachments directory. Every decoder reads from a container.Container
// and returns entities without an AccountID; the importer attaches the account
// once the actor identity is known.
//
// The source JSON is loosely typed. Fields that may be either a bare IRI or an
// embedded object (activity targets, inReplyTo, url, icon) are decoded once
// into Reference or Link and never passed around in their raw form.
//
// Missing actor or outbox documents are fatal (ErrActorNotFound,
// ErrOutboxNotFound). Missing likes or bookmarks yield empty lists. Records
// without a usable id are skipped and counted in Stats.
package activitypub
