package journal

// Store abstracts persistence of the journal document.
// Load must return a normalized document: all top-level collections
// present, history timestamps backfilled (and the backfill persisted),
// and every timestamped collection sorted newest-first.
// Save overwrites the whole document; concurrent writers race and the
// last Save wins. Implementations must be safe for concurrent use.
type Store interface {
	Load() (*Document, error)
	Save(doc *Document) error
}

// finishLoad runs the shared normalize/backfill/sort pipeline on a
// freshly decoded document. persist is called at most once, only when a
// timestamp backfill changed the document.
func finishLoad(doc *Document, persist func(*Document) error) error {
	doc.normalize()
	if doc.backfillTimestamps() {
		if err := persist(doc); err != nil {
			return err
		}
	}
	doc.sortNewestFirst()
	return nil
}
