package storage

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// KeyGenerator builds storage keys of the form
// {category}/{ownerId}/{unixMillis}-{sanitizedName}. The timestamp is
// strictly increasing per generator, so two calls never yield the same key
// even within one millisecond.
type KeyGenerator struct {
	now  func() time.Time
	last atomic.Int64
}

func NewKeyGenerator(now func() time.Time) *KeyGenerator {
	if now == nil {
		now = time.Now
	}
	return &KeyGenerator{now: now}
}

func (g *KeyGenerator) Generate(category Category, ownerID, originalName string) string {
	ts := g.next()
	name := SanitizeFileName(originalName)
	if name == "" {
		name = "file"
	}
	return string(category) + "/" + sanitizeSegment(ownerID) + "/" + strconv.FormatInt(ts, 10) + "-" + name
}

func (g *KeyGenerator) next() int64 {
	ts := g.now().UnixMilli()
	for {
		last := g.last.Load()
		next := ts
		if next <= last {
			next = last + 1
		}
		if g.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// SanitizeFileName replaces every character outside [A-Za-z0-9._-] with '_'.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// sanitizeSegment is SanitizeFileName for path segments: it also refuses
// dot-only segments such as "..".
func sanitizeSegment(s string) string {
	s = SanitizeFileName(s)
	if strings.Trim(s, ".") == "" {
		return "_"
	}
	return s
}

// CategoryOfKey returns the category segment of key.
func CategoryOfKey(key string) Category {
	c, _, _ := strings.Cut(key, "/")
	return Category(c)
}

// KeyOwnedBy reports whether key lives under ownerID's namespace.
func KeyOwnedBy(key, ownerID string) bool {
	parts := strings.Split(key, "/")
	return len(parts) == 3 && parts[1] == sanitizeSegment(ownerID) && parts[2] != ""
}
