package domain

// BookSource records how a book entered the collection.
type BookSource string

const (
	// SourceFinished is a book finished from the reading list and kept.
	SourceFinished BookSource = "finished"
	// SourceImport is a bulk-imported book.
	SourceImport BookSource = "import"
	// SourceManual is a book added straight to the collection.
	SourceManual BookSource = "manual"
)

// UserBook is a collection item: a book the user finished and chose to keep.
// Items are unique per owner on the case-folded (title, author) pair.
type UserBook struct {
	Syncable
	OwnerID string     `json:"owner_id"`
	Title   string     `json:"title"`
	Author  string     `json:"author"`
	ISBN    string     `json:"isbn,omitempty"`
	Rating  *int       `json:"rating,omitempty"`
	Review  string     `json:"review,omitempty"`
	Source  BookSource `json:"source"`
}
