package reconcile

// Report summarizes a single reconciliation pass for observability. The
// driver renders it through the logger; the engine itself never prints.
type Report struct {
	// QueriedA and QueriedB are the listing sizes of each side, after any
	// watermark filtering.
	QueriedA int
	QueriedB int

	// UpsertedIntoB counts documents copied from A into B (A-only documents
	// plus conflicts A won). UpsertedIntoA is the symmetric count.
	UpsertedIntoB int
	UpsertedIntoA int
}

// Moved returns the total number of documents written in either direction.
func (r Report) Moved() int {
	return r.UpsertedIntoA + r.UpsertedIntoB
}
