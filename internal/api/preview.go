// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Preview is a short-lived signed URL for a source document.
type Preview struct {
	URL       string
	ExpiresIn time.Duration
}

type sasResponse struct {
	URL              string  `json:"url"`
	ExpiresInMinutes float64 `json:"expires_in_minutes"`
}

// blobMarker identifies document ids that decode to storage blob URLs.
const blobMarker = "blob.core.windows.net"

// CleanPreviewPath strips trailing digits (chunk suffixes) and surrounding
// whitespace from a document path.
func CleanPreviewPath(path string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(path), "0123456789"))
}

// PathFromTitle extracts the document path from a source title of the form
// "folder/file.pdf - page 3". Titles without " - " are returned trimmed.
func PathFromTitle(title string) string {
	if before, _, ok := strings.Cut(title, " - "); ok {
		return strings.TrimSpace(before)
	}
	return strings.TrimSpace(title)
}

// PreviewURL asks the backend for a signed URL to the document at path.
func (c *Client) PreviewURL(ctx context.Context, path string) (Preview, error) {
	var resp sasResponse
	err := c.do(ctx, request{
		op:     OpPreview,
		method: http.MethodGet,
		path:   "/api/sas",
		query:  url.Values{"path": {CleanPreviewPath(path)}},
	}, &resp)
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		URL:       resp.URL,
		ExpiresIn: time.Duration(resp.ExpiresInMinutes * float64(time.Minute)),
	}, nil
}

// PreviewSource resolves a source from an answer: the path is used when it
// is a blob path, otherwise the title is parsed for one.
func (c *Client) PreviewSource(ctx context.Context, title, path string) (Preview, error) {
	if p, ok := BlobPath(path); ok {
		return c.PreviewURL(ctx, p)
	}
	return c.PreviewURL(ctx, PathFromTitle(title))
}

// PreviewFromID resolves a base64 document id to its blob path and asks for
// a signed URL.
func (c *Client) PreviewFromID(ctx context.Context, id string) (Preview, error) {
	decoded, ok := DecodeDocumentID(id)
	if !ok {
		return Preview{}, failed(OpPreview, 0, ErrInvalidDocumentID)
	}
	p, ok := BlobPath(decoded)
	if !ok {
		return Preview{}, failed(OpPreview, 0, ErrInvalidDocumentID)
	}
	return c.PreviewURL(ctx, p)
}

// BlobPath returns the part of a storage blob URL after "/docs/".
func BlobPath(raw string) (string, bool) {
	if !strings.Contains(raw, blobMarker) {
		return "", false
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	_, after, ok := strings.Cut(u.Path, "/docs/")
	if !ok || after == "" {
		return "", false
	}
	return after, true
}
