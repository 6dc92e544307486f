package api

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title    string  `json:"title"`
	FolderID *string `json:"folderId"`
}

// CopyNoteRequest is the request body for duplicating a note.
type CopyNoteRequest struct {
	FolderID *string `json:"folderId"`
}

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

// ExportResponse wraps the flattened-text projection of a note.
type ExportResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
