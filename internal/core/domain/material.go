package domain

import "time"

// Uploader is the identity snapshot recorded on a Material at upload time.
type Uploader struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Material describes one uploaded file. A record exists only for files that
// were committed to their branch directory.
type Material struct {
	ID           uint64    `json:"id"`
	Branch       string    `json:"branch"`
	Semester     string    `json:"semester"`
	OriginalName string    `json:"originalName"`
	FileName     string    `json:"fileName"`
	StoragePath  string    `json:"storagePath"`
	DownloadURL  string    `json:"downloadUrl"`
	FileType     string    `json:"fileType"`
	Size         int64     `json:"size"`
	UploadedBy   Uploader  `json:"uploadedBy"`
	UploadDate   time.Time `json:"uploadDate"`
}
