package client

import (
	"io"

	"lexdesk/internal/types"
)

type HealthResponse struct {
	OK         bool   `json:"ok"`
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	PID        int    `json:"pid"`
}

type MeetingStatus struct {
	Available bool   `json:"available"`
	Status    string `json:"status"`
}

type meetingResponse struct {
	Meeting types.Meeting `json:"meeting"`
}

// UploadRequest describes one document upload. Content is streamed.
type UploadRequest struct {
	FileName   string
	Content    io.Reader
	Title      string
	Category   string
	CaseID     string
	UploadedBy string
}

// DownloadInfo describes a streamed document payload.
type DownloadInfo struct {
	FileName    string
	ContentType string
	Bytes       int64
}
