package models

// UploadResponse is the envelope returned by POST /upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	FileURL string `json:"fileUrl,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WebhookResponse is the envelope returned by webhook deliveries.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
