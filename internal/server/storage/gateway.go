package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/jobhub/internal/logging"
)

// Asset describes a stored object.
type Asset struct {
	Key         string   `json:"key"`
	URL         string   `json:"url"`
	Category    Category `json:"category"`
	Size        int64    `json:"size"`
	ContentType string   `json:"contentType"`
}

// Options tunes a Gateway. Zero values pick the defaults.
type Options struct {
	// Timeout bounds each backend call.
	Timeout time.Duration
	// URLExpiry is the validity of signed URLs returned by uploads.
	URLExpiry time.Duration
	// MaxParallel caps concurrent backend calls in UploadFiles.
	MaxParallel int
	Now         func() time.Time
}

const (
	defaultTimeout     = 30 * time.Second
	defaultURLExpiry   = 5 * 365 * 24 * time.Hour
	defaultMaxParallel = 4
)

// Gateway validates assets against their category policy and moves them in
// and out of a Backend. It is safe for concurrent use.
type Gateway struct {
	backend     Backend
	keys        *KeyGenerator
	logger      logging.Logger
	timeout     time.Duration
	urlExpiry   time.Duration
	maxParallel int
	now         func() time.Time
}

func NewGateway(backend Backend, logger logging.Logger, opts Options) *Gateway {
	if logger == nil {
		logger = logging.Nop{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = defaultURLExpiry
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = defaultMaxParallel
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gateway{
		backend:     backend,
		keys:        NewKeyGenerator(opts.Now),
		logger:      logger.With("module", "storage", "backend", backend.Name()),
		timeout:     opts.Timeout,
		urlExpiry:   opts.URLExpiry,
		maxParallel: opts.MaxParallel,
		now:         opts.Now,
	}
}

// Backend exposes the configured backend, e.g. for serving local files.
func (g *Gateway) Backend() Backend { return g.backend }

func (g *Gateway) GenerateKey(category Category, ownerID, originalName string) string {
	return g.keys.Generate(category, ownerID, originalName)
}

// Upload stores file under key. The category is taken from the key's first
// segment and its policy is enforced before anything is sent to the backend.
func (g *Gateway) Upload(ctx context.Context, file File, key, contentType string, metadata map[string]string) (*Asset, error) {
	category := CategoryOfKey(key)
	if contentType != "" {
		file.ContentType = contentType
	}
	if err := g.validate(category, file, 0, nil); err != nil {
		return nil, err
	}
	return g.put(ctx, category, file, key, metadata)
}

// UploadRequest is a single file bound for a category. MaxSizeMB and
// AllowedTypes may only tighten the category policy.
type UploadRequest struct {
	Category     Category
	OwnerID      string
	File         File
	MaxSizeMB    int
	AllowedTypes []string
}

// UploadAsset validates the request, derives a fresh key and stores the file
// with owner and provenance metadata.
func (g *Gateway) UploadAsset(ctx context.Context, req UploadRequest) (*Asset, error) {
	if err := g.validate(req.Category, req.File, req.MaxSizeMB, req.AllowedTypes); err != nil {
		return nil, err
	}

	key := g.GenerateKey(req.Category, req.OwnerID, req.File.Name)
	metadata := map[string]string{
		"owner-id":      req.OwnerID,
		"category":      string(req.Category),
		"original-name": req.File.Name,
		"upload-time":   strconv.FormatInt(g.now().UnixMilli(), 10),
	}
	return g.put(ctx, req.Category, req.File, key, metadata)
}

// UploadResult is the outcome for the request at Index.
type UploadResult struct {
	Index int
	Name  string
	Asset *Asset
	Err   error
}

// UploadFiles uploads every request concurrently and reports one result per
// request in input order. A failing file never cancels the others.
func (g *Gateway) UploadFiles(ctx context.Context, reqs []UploadRequest) []UploadResult {
	results := make([]UploadResult, len(reqs))

	var eg errgroup.Group
	eg.SetLimit(g.maxParallel)
	for i, req := range reqs {
		i, req := i, req
		eg.Go(func() error {
			asset, err := g.UploadAsset(ctx, req)
			results[i] = UploadResult{Index: i, Name: req.File.Name, Asset: asset, Err: err}
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

// GetURL returns an address for key. A non-positive expiry uses the gateway
// default. Public backends ignore expiry.
func (g *Gateway) GetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = g.urlExpiry
	}
	u, err := g.backend.URL(ctx, key, expiry)
	if err != nil {
		return "", &TransportError{Op: "url", Key: key, Err: err}
	}
	return u, nil
}

// Delete removes key and reports whether the backend confirmed it. Failures
// are logged and never returned. Removing a key that does not exist succeeds.
func (g *Gateway) Delete(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.backend.Delete(ctx, key); err != nil {
		g.logger.Warn(ctx, "asset delete failed", "key", key, "error", err)
		return false
	}
	g.logger.Debug(ctx, "asset deleted", "key", key)
	return true
}

func (g *Gateway) validate(category Category, file File, overrideMaxMB int, overrideTypes []string) error {
	policy, ok := PolicyFor(category)
	if !ok {
		return &ValidationError{Category: category, File: file.Name, Reason: "unknown category"}
	}
	if !ValidateType(file, policy, overrideTypes) {
		return &ValidationError{Category: category, File: file.Name,
			Reason: fmt.Sprintf("content type %q is not allowed", file.ContentType)}
	}
	if !ValidateSize(file, policy, overrideMaxMB) {
		return &ValidationError{Category: category, File: file.Name,
			Reason: fmt.Sprintf("size %d bytes exceeds the limit", file.Size())}
	}
	return nil
}

func (g *Gateway) put(ctx context.Context, category Category, file File, key string, metadata map[string]string) (*Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := g.backend.Put(ctx, key, file.Data, contentType, metadata); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			g.logger.Warn(ctx, "asset upload timed out", "key", key, "timeout", g.timeout)
		} else {
			g.logger.Error(ctx, "asset upload failed", "key", key, "error", err)
		}
		return nil, &TransportError{Op: "put", Key: key, Err: err}
	}

	u, err := g.backend.URL(ctx, key, g.urlExpiry)
	if err != nil {
		return nil, &TransportError{Op: "url", Key: key, Err: err}
	}

	g.logger.Info(ctx, "asset uploaded", "key", key, "size", file.Size())
	return &Asset{Key: key, URL: u, Category: category, Size: file.Size(), ContentType: contentType}, nil
}
