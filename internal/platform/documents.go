package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"scribe/internal/api"
)

// DocumentService manages reference documents.
type DocumentService struct {
	caller
}

// Upload stores a reference document.
func (s *DocumentService) Upload(ctx context.Context, req UploadDocument) (*ReferenceDocument, error) {
	if req.File == nil {
		return nil, errors.New("upload document: file is required")
	}
	form := api.NewMultipart().AddFile("file_path", fallbackName(req.FileName, "document"), req.File)
	addOptionalField(form, "document_type", req.DocumentType)
	addOptionalField(form, "document_name", req.DocumentName)

	var doc ReferenceDocument
	if err := s.send(ctx, http.MethodPost, "/documents/upload/{token}/", form, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns the caller's documents and audio files.
func (s *DocumentService) List(ctx context.Context) (*UserDocuments, error) {
	var out UserDocuments
	if err := s.get(ctx, "/documents/{token}/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a reference document.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return errors.New("delete document: id is required")
	}
	path := fmt.Sprintf("/documents/%s/{token}/", url.PathEscape(documentID))
	return s.send(ctx, http.MethodDelete, path, nil, nil)
}
