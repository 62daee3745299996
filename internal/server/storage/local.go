package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/jobhub/internal/filex"
)

// LocalPathPrefix is the URL path under which the HTTP layer serves the
// local backend's root directory.
const LocalPathPrefix = "/uploads/"

// LocalBackend keeps assets on the local filesystem. It is meant for
// development; URLs point back at the serving process.
type LocalBackend struct {
	root    string
	baseURL string
}

func NewLocalBackend(root, baseURL string) (*LocalBackend, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("local storage root: %w", err)
	}
	return &LocalBackend{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (b *LocalBackend) Name() string { return "local" }

// Root is the absolute directory holding the assets.
func (b *LocalBackend) Root() string { return b.root }

func (b *LocalBackend) Put(ctx context.Context, key string, data []byte, _ string, _ map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := filex.SafeJoin(b.root, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return err
	}
	return f.Close()
}

func (b *LocalBackend) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, err := filex.SafeJoin(b.root, key); err != nil {
		return "", err
	}
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return b.baseURL + LocalPathPrefix + strings.Join(segments, "/"), nil
}

func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := filex.SafeJoin(b.root, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
