// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/jeranaias/aina-tui/internal/model"
)

// rawDoc is a source document as agents return it. Field names vary by
// agent: retrieval sends filename/doc_id, search sends title/url, history
// may carry path.
type rawDoc struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	ID       string `json:"id"`
	DocID    string `json:"doc_id"`
	ChunkID  string `json:"chunk_id"`
}

// NormalizeSources converts raw documents to model.Source. The title comes
// from title or filename, the path from path, url or a base64 id that
// decodes to an http(s) URL. Documents without a path are dropped; a
// missing title falls back to the last path segment.
func NormalizeSources(docs []rawDoc) []model.Source {
	if len(docs) == 0 {
		return nil
	}
	out := make([]model.Source, 0, len(docs))
	for _, d := range docs {
		if s, ok := normalizeDoc(d); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeDoc(d rawDoc) (model.Source, bool) {
	title := firstNonEmpty(clean(d.Title), clean(d.Filename))
	title = decodeSafe(title)

	path := firstNonEmpty(clean(d.Path), clean(d.URL))
	if path == "" {
		for _, id := range []string{d.ID, d.DocID} {
			if u, ok := DecodeDocumentID(id); ok && strings.HasPrefix(u, "http") {
				path = clean(u)
				break
			}
		}
	}
	if path == "" {
		return model.Source{}, false
	}

	if title == "" {
		title = decodeSafe(lastSegment(path))
	}
	if title == "" {
		title = "Document"
	}
	return model.Source{Title: title, Path: path}, true
}

// DecodeDocumentID decodes a base64 document id. Standard and URL-safe
// alphabets are accepted, padded or not. Search indexes often append a
// single digit to the encoded key; that digit is tolerated.
func DecodeDocumentID(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	candidates := []string{id}
	if n := len(id); n > 1 && id[n-1] >= '0' && id[n-1] <= '9' {
		candidates = append(candidates, id[:n-1])
	}
	encodings := []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding,
		base64.URLEncoding, base64.RawURLEncoding,
	}
	for _, c := range candidates {
		for _, enc := range encodings {
			if data, err := enc.DecodeString(c); err == nil && len(data) > 0 {
				return string(data), true
			}
		}
	}
	return "", false
}

func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r", ""))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// decodeSafe percent-decodes s, returning it unchanged if it is malformed.
func decodeSafe(s string) string {
	if s == "" {
		return ""
	}
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}

func lastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
