// Package storage keeps uploaded images in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
)

// Prefix is where uploads live inside the bucket.
const Prefix = "uploads/"

// ErrDisabled is returned when storage is not configured.
var ErrDisabled = eris.New("object storage is not configured")

// Options configures a Bucket.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base objects are served from. When empty, URLs
	// point at the endpoint directly.
	PublicURL string
}

// Enabled reports whether enough is set to connect.
func (o Options) Enabled() bool {
	return o.Endpoint != "" && o.Bucket != ""
}

// Object is one stored file.
type Object struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	URL          string
}

// Name is the key without the uploads prefix.
func (o Object) Name() string {
	return strings.TrimPrefix(o.Key, Prefix)
}

// Bucket wraps one bucket of an S3-compatible service.
type Bucket struct {
	client *minio.Client
	name   string
	public *url.URL
}

// New builds a Bucket. It does not contact the service; call EnsureBucket
// for that.
func New(opts Options) (*Bucket, error) {
	if !opts.Enabled() {
		return nil, ErrDisabled
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, eris.Wrap(err, "creating storage client")
	}

	var public *url.URL
	if opts.PublicURL != "" {
		public, err = url.Parse(strings.TrimRight(opts.PublicURL, "/"))
		if err != nil {
			return nil, eris.Wrapf(err, "invalid public storage URL %q", opts.PublicURL)
		}
	} else {
		ep := *client.EndpointURL()
		ep.Path = "/" + opts.Bucket
		public = &ep
	}

	return &Bucket{client: client, name: opts.Bucket, public: public}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (b *Bucket) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.name)
	if err != nil {
		return eris.Wrapf(err, "checking bucket %s", b.name)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.name, minio.MakeBucketOptions{}); err != nil {
		return eris.Wrapf(err, "creating bucket %s", b.name)
	}
	return nil
}

// Put stores data under key and returns the stored object.
func (b *Bucket) Put(ctx context.Context, key string, data []byte, contentType string) (Object, error) {
	_, err := b.client.PutObject(ctx, b.name, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return Object{}, eris.Wrapf(err, "uploading %s", key)
	}
	return Object{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  contentType,
		LastModified: time.Now().UTC(),
		URL:          b.URL(key),
	}, nil
}

// List returns every upload, newest first.
func (b *Bucket) List(ctx context.Context) ([]Object, error) {
	var out []Object
	for info := range b.client.ListObjects(ctx, b.name, minio.ListObjectsOptions{Prefix: Prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, eris.Wrap(info.Err, "listing uploads")
		}
		out = append(out, Object{
			Key:          info.Key,
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
			URL:          b.URL(info.Key),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out, nil
}

// Remove deletes key. Only keys under Prefix can be removed.
func (b *Bucket) Remove(ctx context.Context, key string) error {
	if !strings.HasPrefix(key, Prefix) || strings.Contains(key, "..") {
		return eris.Errorf("refusing to delete %q", key)
	}
	if err := b.client.RemoveObject(ctx, b.name, key, minio.RemoveObjectOptions{}); err != nil {
		return eris.Wrapf(err, "deleting %s", key)
	}
	return nil
}

// URL returns the public URL of key.
func (b *Bucket) URL(key string) string {
	u := *b.public
	u.Path = path.Join(u.Path, key)
	return u.String()
}

// NewKey returns a fresh key under Prefix for a file called name. The
// extension is taken from ext.
func NewKey(now time.Time, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "bin"
	}
	return Prefix + now.UTC().Format("2006/01/") + uuid.NewString() + "." + ext
}
