// Package document defines the value object exchanged between stores.
//
// A Document is identity (UUID) plus namespace metadata (index, type), a
// timestamp, and an opaque content payload. Identity is the only field used
// to match documents across stores; the namespace is carried through for
// re-insertion and the timestamp decides which copy is newer.
//
// Documents are immutable from the engine's point of view: the reconciliation
// code only decides which store receives a copy, it never edits fields in
// place. The single deliberate exception is the missing-timestamp default,
// which is resolved at persistence time through PersistTimestamp and an
// injectable Clock, so tests can pin "now".
package document
