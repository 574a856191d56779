package models

// Category is a hierarchical grouping used to narrow the match candidate set
// ("blocking"). The hierarchy itself is owned by the catalog collaborator.
type Category struct {
	ID       int    `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	ParentID *int   `db:"parent_id" json:"parentId,omitempty"`
}
