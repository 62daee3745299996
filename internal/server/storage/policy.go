// Package storage is the asset storage gateway: it validates user-submitted
// files against per-category policies and stores, locates and deletes them
// through one of two interchangeable backends (local disk or S3).
package storage

import (
	"fmt"
	"mime"
	"path"
	"strings"
)

// Category is the kind of asset being stored. It is also the first segment of
// every storage key.
type Category string

const (
	CategoryCV          Category = "cv"
	CategoryImage       Category = "image"
	CategoryPhoto       Category = "photo"
	CategoryCertificate Category = "certificate"
	CategoryLogo        Category = "logo"
	CategoryDocument    Category = "document"
)

const bytesPerMB = 1024 * 1024

// Policy is what may be uploaded under a category. AllowedTypes holds either
// MIME types ("image/png"), matched exactly or by prefix, or short document
// tokens ("pdf", "docx"), matched by their MIME type or file extension.
type Policy struct {
	MaxSizeMB    int
	AllowedTypes []string
}

var imagePolicy = Policy{MaxSizeMB: 5, AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"}}

var policies = map[Category]Policy{
	CategoryCV:          {MaxSizeMB: 10, AllowedTypes: []string{"pdf", "doc", "docx"}},
	CategoryImage:       imagePolicy,
	CategoryPhoto:       imagePolicy,
	CategoryCertificate: {MaxSizeMB: 10, AllowedTypes: []string{"pdf", "image/jpeg", "image/png"}},
	CategoryLogo:        {MaxSizeMB: 2, AllowedTypes: []string{"image/png", "image/svg", "image/jpeg"}},
	CategoryDocument:    {MaxSizeMB: 10, AllowedTypes: []string{"pdf", "doc", "docx", "txt"}},
}

var shortTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":  "text/plain",
}

// PolicyFor returns the policy of c. Categories without a policy are not
// valid upload targets.
func PolicyFor(c Category) (Policy, bool) {
	p, ok := policies[c]
	return p, ok
}

// ParseCategory maps a raw string onto a known Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := policies[c]; !ok {
		return "", fmt.Errorf("unknown asset category %q", s)
	}
	return c, nil
}

// File is an upload payload as declared by the client.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// ValidateSize reports whether file fits the policy ceiling. A positive
// overrideMaxMB can only lower the ceiling, never raise it.
func ValidateSize(file File, policy Policy, overrideMaxMB int) bool {
	limit := policy.MaxSizeMB
	if overrideMaxMB > 0 && overrideMaxMB < limit {
		limit = overrideMaxMB
	}
	return file.Size() <= int64(limit)*bytesPerMB
}

// ValidateType reports whether the declared content type of file is accepted
// by policy. A non-empty overrideTypes narrows the accepted set to the entries
// present in both lists. When no specific type is declared, the type implied
// by the file extension is used instead.
func ValidateType(file File, policy Policy, overrideTypes []string) bool {
	allowed := policy.AllowedTypes
	if len(overrideTypes) > 0 {
		allowed = intersect(policy.AllowedTypes, overrideTypes)
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(file.Name)), ".")
	ct := normalizeContentType(file.ContentType)
	generic := ct == "" || ct == "application/octet-stream"
	if generic {
		ct = normalizeContentType(mime.TypeByExtension("." + ext))
	}

	for _, a := range allowed {
		a = strings.ToLower(a)
		if strings.Contains(a, "/") {
			if ct != "" && strings.HasPrefix(ct, a) {
				return true
			}
			continue
		}
		if ct != "" && ct == shortTypes[a] {
			return true
		}
		if generic && ext == a {
			return true
		}
	}

	return false
}

func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return strings.ToLower(mt)
	}
	return strings.ToLower(ct)
}

func intersect(base, narrow []string) []string {
	var out []string
	for _, b := range base {
		for _, n := range narrow {
			if strings.EqualFold(b, n) {
				out = append(out, b)
				break
			}
		}
	}
	return out
}
