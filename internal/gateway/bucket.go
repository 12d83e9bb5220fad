package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

const metaSuffix = ".meta.json"

// ObjectMeta is stored next to every object
type ObjectMeta struct {
	ContentType  string    `json:"content_type"`
	CacheControl string    `json:"cache_control,omitempty"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Bucket implements Files over an afero filesystem, one directory per bucket
type Bucket struct {
	fs         afero.Fs
	publicBase string
}

// NewBucket creates a file store rooted at fs whose public URLs start at publicBase
func NewBucket(fs afero.Fs, publicBase string) *Bucket {
	return &Bucket{fs: fs, publicBase: strings.TrimRight(publicBase, "/")}
}

// NewDiskBucket stores objects below root on the local disk
func NewDiskBucket(root, publicBase string) (*Bucket, error) {
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return NewBucket(afero.NewBasePathFs(fs, root), publicBase), nil
}

func objectKey(bucket, name string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("%w: bucket %q", ErrInvalidPath, bucket)
	}
	clean := path.Clean("/" + name)
	if name == "" || clean == "/" || strings.HasSuffix(clean, metaSuffix) || clean != "/"+strings.TrimPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return path.Join(bucket, clean), nil
}

// Upload stores data under bucket/name
func (b *Bucket) Upload(ctx context.Context, bucket, name string, data []byte, opts UploadOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := objectKey(bucket, name)
	if err != nil {
		return err
	}

	if !opts.Upsert {
		exists, err := afero.Exists(b.fs, key)
		if err != nil {
			return fmt.Errorf("failed to stat object: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrObjectExists, key)
		}
	}

	if err := b.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return fmt.Errorf("failed to create bucket directory: %w", err)
	}
	if err := afero.WriteFile(b.fs, key, data, 0o644); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}

	meta := ObjectMeta{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
		Size:         int64(len(data)),
		UploadedAt:   time.Now().UTC(),
	}
	if meta.ContentType == "" {
		meta.ContentType = mimetype.Detect(data).String()
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode object metadata: %w", err)
	}
	if err := afero.WriteFile(b.fs, key+metaSuffix, encoded, 0o644); err != nil {
		return fmt.Errorf("failed to write object metadata: %w", err)
	}

	return nil
}

// PublicURL returns the address the object is served from
func (b *Bucket) PublicURL(bucket, name string) string {
	return b.publicBase + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" +
		(&url.URL{Path: strings.TrimPrefix(name, "/")}).EscapedPath()
}

// Open returns a stored object and its metadata
func (b *Bucket) Open(bucket, name string) (afero.File, ObjectMeta, error) {
	key, err := objectKey(bucket, name)
	if err != nil {
		return nil, ObjectMeta{}, err
	}

	f, err := b.fs.Open(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ObjectMeta{}, fmt.Errorf("%w: %s", ErrObjectMissing, key)
		}
		return nil, ObjectMeta{}, fmt.Errorf("failed to open object: %w", err)
	}
	if info, err := f.Stat(); err != nil || info.IsDir() {
		f.Close()
		return nil, ObjectMeta{}, fmt.Errorf("%w: %s", ErrObjectMissing, key)
	}

	var meta ObjectMeta
	if raw, err := afero.ReadFile(b.fs, key+metaSuffix); err == nil {
		_ = json.Unmarshal(raw, &meta)
	}
	if meta.ContentType == "" {
		meta.ContentType = "application/octet-stream"
	}

	return f, meta, nil
}
