package dto

// UploadDocumentRequest is the body of POST /api/v1/documents. Content is
// the raw text, Markdown or HTML of the document.
type UploadDocumentRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content"`
}
