package platform

import (
	"encoding/json"
	"io"
	"time"

	"scribe/internal/session"
)

// AudioStatus is the processing state of an uploaded audio file.
type AudioStatus string

const (
	AudioPending    AudioStatus = "pending"
	AudioProcessing AudioStatus = "processing"
	AudioCompleted  AudioStatus = "completed"
	AudioFailed     AudioStatus = "failed"
)

// AudioRecord is one entry of the audio records listing.
type AudioRecord struct {
	ID               string      `json:"id"`
	OriginalFilename string      `json:"original_filename"`
	Status           AudioStatus `json:"status"`
	Duration         *float64    `json:"duration,omitempty"`
	Coverage         *float64    `json:"coverage,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// ProcessingResult is returned after an upload is transcribed and matched
// against its reference document.
type ProcessingResult struct {
	SessionID           string  `json:"session_id"`
	MatchedWords        int     `json:"matched_words"`
	TotalWords          int     `json:"total_words"`
	Coverage            float64 `json:"coverage"`
	ReferenceDocumentID string  `json:"reference_document_id"`
	AudioFileID         string  `json:"audio_file_id"`
	MatchedContent      string  `json:"matched_content"`
	MissingContent      string  `json:"missing_content"`
	EntireDocument      string  `json:"entire_document"`
	ProcessingTime      float64 `json:"processing_time"`
}

// SpeakerMapping labels a diarized speaker with a person's name.
type SpeakerMapping struct {
	AudioID      string `json:"audio_id"`
	SpeakerLabel string `json:"speaker_label"`
	Name         string `json:"name"`
	ProfileID    *int64 `json:"profile_id,omitempty"`
}

// UploadAudio describes an audio upload. Audio is required; the reference
// text is either a new Text file or an ExistingDocumentID.
type UploadAudio struct {
	AudioName          string
	Audio              io.Reader
	TextName           string
	Text               io.Reader
	ExistingDocumentID string
	DocumentType       string
	DocumentName       string
}

// DocumentType classifies a reference document.
type DocumentType string

const (
	DocumentSOP       DocumentType = "sop"
	DocumentScript    DocumentType = "script"
	DocumentGuideline DocumentType = "guideline"
	DocumentChecklist DocumentType = "checklist"
)

// ReferenceDocument is a document audio is matched against.
type ReferenceDocument struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	DocumentType     DocumentType    `json:"document_type"`
	OriginalFilename string          `json:"original_filename"`
	FileSize         int64           `json:"file_size"`
	ContentType      string          `json:"content_type"`
	UploadStatus     string          `json:"upload_status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	RAGEnabled       bool            `json:"rag_enabled"`
	RAGStatus        string          `json:"rag_status,omitempty"`
	RAGLastError     string          `json:"rag_last_error,omitempty"`
	RAGMetadata      json.RawMessage `json:"rag_metadata,omitempty"`
}

// UploadDocument describes a reference document upload.
type UploadDocument struct {
	FileName     string
	File         io.Reader
	DocumentType string
	DocumentName string
}

// UserDocuments lists the caller's documents and audio files.
type UserDocuments struct {
	Documents       []ReferenceDocument `json:"documents"`
	AudioFiles      []json.RawMessage   `json:"audio_files"`
	TotalDocuments  int                 `json:"total_documents"`
	TotalAudioFiles int                 `json:"total_audio_files"`
}

// DashboardSummary holds the per-user counters shown on the dashboard.
type DashboardSummary struct {
	TotalDocuments     int `json:"total_documents"`
	TotalAudioFiles    int `json:"total_audio_files"`
	ProcessedAudio     int `json:"processed_audio"`
	PendingDiarization int `json:"pending_diarization"`
}

// LoginResponse is returned by the login endpoint.
type LoginResponse struct {
	Message string            `json:"message"`
	Data    *session.Identity `json:"data"`
	Token   string            `json:"token"`
}

// RegisterRequest carries the fields of a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

// ProfileUpdate carries the profile fields to change. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Name     *string       `json:"name,omitempty"`
	Username *string       `json:"username,omitempty"`
	Theme    *string       `json:"theme,omitempty"`
	Email    *string       `json:"email,omitempty"`
	Role     *session.Role `json:"role,omitempty"`
	IsActive *bool         `json:"is_active,omitempty"`
}

// UserSettings are per-user preferences.
type UserSettings struct {
	Language          string          `json:"language"`
	NotificationPrefs json.RawMessage `json:"notification_prefs,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// UserSettingsUpdate carries the user settings to change.
type UserSettingsUpdate struct {
	Language          *string         `json:"language,omitempty"`
	NotificationPrefs json.RawMessage `json:"notification_prefs,omitempty"`
}

// SystemSettings are platform-wide settings managed by admins.
type SystemSettings struct {
	DefaultSOPVersion string    `json:"default_sop_version"`
	TimeoutThreshold  int       `json:"timeout_threshold"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SystemSettingsUpdate carries the system settings to change.
type SystemSettingsUpdate struct {
	DefaultSOPVersion *string `json:"default_sop_version,omitempty"`
	TimeoutThreshold  *int    `json:"timeout_threshold,omitempty"`
}

// AuditLog is one entry of the audit trail.
type AuditLog struct {
	ID         int64           `json:"id"`
	Action     string          `json:"action"`
	User       json.RawMessage `json:"user,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Session    int64           `json:"session"`
	ObjectID   int64           `json:"object_id"`
	ObjectType string          `json:"object_type"`
	Details    json.RawMessage `json:"details,omitempty"`
}
