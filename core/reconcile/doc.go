// Package reconcile implements bidirectional document reconciliation between
// two heterogeneous stores.
//
// The engine pulls the document listing of both stores (optionally bounded by
// a watermark timestamp), matches documents purely by identity, and converges
// the stores toward the union of their contents:
//
//   - a document present on one side only is upserted into the other side
//   - a document present on both sides with differing timestamps is upserted
//     into the older side (newer-wins)
//   - equal timestamps are a no-op; content is never compared, so divergent
//     content under equal timestamps is preserved, not merged
//
// All mutations go through Upsert (delete-then-insert), which guarantees at
// most one live copy per identity in the destination store. The apply step
// aborts on the first store failure; because matching is by identity and
// timestamps are stable, the next pass re-detects and re-resolves whatever
// was left outstanding, so a partially applied pass is safe.
//
// # Components
//
// Store is the capability contract a backend must satisfy (list since a
// timestamp, insert, delete by identity). Reconcile is a single pass. Driver
// runs passes at a fixed interval and maintains the incremental watermark.
//
// # Known limitations
//
// Deletion is not propagated: a document removed from one store is simply
// invisible and gets recreated from the other side on the next pass. Both
// this and the equal-timestamp content check are deliberate boundaries, not
// bugs.
package reconcile
