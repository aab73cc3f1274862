package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"scribe/internal/api"
	"scribe/internal/paging"
)

// AudioService manages audio uploads, their diarization and the listing of
// processed records.
type AudioService struct {
	caller
}

// ListRecords fetches one page of the caller's audio records. Pages start at 1.
func (s *AudioService) ListRecords(ctx context.Context, page int) (paging.Page[AudioRecord], error) {
	if page < 1 {
		page = 1
	}
	var out paging.Page[AudioRecord]
	query := url.Values{"page": {strconv.Itoa(page)}}
	if err := s.get(ctx, "/audio-records/{token}/", query, &out); err != nil {
		return paging.Page[AudioRecord]{}, err
	}
	return out, nil
}

// FindRecord locates a record by ID by scanning the listing page by page.
// The listing has no direct lookup endpoint.
func (s *AudioService) FindRecord(ctx context.Context, id string) (AudioRecord, error) {
	return paging.FindByID(ctx, s.ListRecords, id, func(r AudioRecord) string { return r.ID })
}

// AllRecords returns every audio record across all pages.
func (s *AudioService) AllRecords(ctx context.Context) ([]AudioRecord, error) {
	var records []AudioRecord
	err := paging.Walk(ctx, s.ListRecords, func(page paging.Page[AudioRecord]) bool {
		records = append(records, page.Results...)
		return true
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Upload sends an audio file, with an optional reference text, and starts
// processing.
func (s *AudioService) Upload(ctx context.Context, req UploadAudio) (*ProcessingResult, error) {
	if req.Audio == nil {
		return nil, errors.New("upload audio: audio file is required")
	}
	form := api.NewMultipart().AddFile("audio_file", fallbackName(req.AudioName, "audio"), req.Audio)
	if req.Text != nil {
		form.AddFile("text_file", fallbackName(req.TextName, "reference.txt"), req.Text)
	}
	addOptionalField(form, "existing_document_id", req.ExistingDocumentID)
	addOptionalField(form, "document_type", req.DocumentType)
	addOptionalField(form, "document_name", req.DocumentName)

	var result ProcessingResult
	if err := s.send(ctx, http.MethodPost, "/upload/{token}/", form, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RunDiarization starts speaker diarization for an uploaded audio file.
func (s *AudioService) RunDiarization(ctx context.Context, audioID string) (json.RawMessage, error) {
	if strings.TrimSpace(audioID) == "" {
		return nil, errors.New("run diarization: audio id is required")
	}
	var out json.RawMessage
	body := map[string]string{"audio_id": audioID}
	if err := s.send(ctx, http.MethodPost, "/audio/{token}/diarization/run/", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MapSpeaker assigns a name to a diarized speaker label.
func (s *AudioService) MapSpeaker(ctx context.Context, mapping SpeakerMapping) (json.RawMessage, error) {
	if mapping.AudioID == "" || mapping.SpeakerLabel == "" || mapping.Name == "" {
		return nil, errors.New("map speaker: audio id, speaker label and name are required")
	}
	var out json.RawMessage
	if err := s.send(ctx, http.MethodPost, "/audio/{token}/diarization/map/", mapping, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SpeakerMappings lists the speaker labels already named for an audio file.
func (s *AudioService) SpeakerMappings(ctx context.Context, audioID string) ([]SpeakerMapping, error) {
	if strings.TrimSpace(audioID) == "" {
		return nil, errors.New("speaker mappings: audio id is required")
	}
	var out []SpeakerMapping
	path := fmt.Sprintf("/audio/{token}/%s/diarization/map/", url.PathEscape(audioID))
	if err := s.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadURL returns the link to the processed transcript document.
func (s *AudioService) DownloadURL(sessionID string) (string, error) {
	return s.tokenURL(fmt.Sprintf("/download/{token}/%s/", url.PathEscape(sessionID)))
}

// DiarizedDownloadURL returns the link to the transcript with speaker labels.
func (s *AudioService) DiarizedDownloadURL(sessionID string) (string, error) {
	return s.tokenURL(fmt.Sprintf("/download/with-diarization/{token}/%s/", url.PathEscape(sessionID)))
}

func addOptionalField(form *api.Multipart, name, value string) {
	if value = strings.TrimSpace(value); value != "" {
		form.AddField(name, value)
	}
}

func fallbackName(name, fallback string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return fallback
}
