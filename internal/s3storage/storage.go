// Package s3storage implements the asset store on a single MinIO/S3 bucket.
//
// The bucket is laid out as a folder tree. A folder id is a key prefix and is
// marked by an empty ".folder" object carrying the folder's display name. A
// file id is the full object key. Display names live in object metadata, so
// two files in one folder may share a name.
package s3storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/assets"
	"github.com/dharsanguruparan/hirevault/internal/config"
)

const (
	markerName   = ".folder"
	nameMetaKey  = "Name"
	accessTagKey = "access"
	publicRead   = "public-read"
	defaultType  = "application/octet-stream"
)

// Storage wraps the MinIO client and the bucket all assets live in.
type Storage struct {
	client *minio.Client
	bucket string
	region string
}

var _ assets.Store = (*Storage)(nil)

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{client: client, bucket: cfg.Bucket, region: cfg.S3Region}, nil
}

// EnsureBucket makes sure the asset bucket exists before use.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// ListNames returns the display names of the files directly inside folderID.
func (s *Storage) ListNames(ctx context.Context, folderID string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefixOf(folderID)}) {
		if obj.Err != nil {
			return nil, mapErr(obj.Err)
		}
		if isPrefix(obj.Key) || isMarker(obj.Key) {
			continue
		}
		info, err := s.client.StatObject(ctx, s.bucket, obj.Key, minio.StatObjectOptions{})
		if err != nil {
			return nil, mapErr(err)
		}
		names = append(names, displayName(info))
	}
	return names, nil
}

// FindFolder looks for a direct child folder of parentID with the given name.
func (s *Storage) FindFolder(ctx context.Context, name, parentID string) (string, bool, error) {
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefixOf(parentID)}) {
		if obj.Err != nil {
			return "", false, mapErr(obj.Err)
		}
		if !isPrefix(obj.Key) {
			continue
		}
		id := strings.TrimSuffix(obj.Key, "/")
		info, err := s.client.StatObject(ctx, s.bucket, markerKey(id), minio.StatObjectOptions{})
		if err != nil {
			if apperr.Is(mapErr(err), apperr.NotFound) {
				continue
			}
			return "", false, mapErr(err)
		}
		if displayName(info) == name {
			return id, true, nil
		}
	}
	return "", false, nil
}

// CreateFolder writes a folder marker under parentID and returns the new id.
func (s *Storage) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	id := childID(parentID)
	_, err := s.client.PutObject(ctx, s.bucket, markerKey(id), strings.NewReader(""), 0, minio.PutObjectOptions{
		ContentType:  defaultType,
		UserMetadata: map[string]string{nameMetaKey: encodeName(name)},
	})
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	return id, nil
}

// Upload stores body as a new file in folderID. Size may be -1 when unknown.
func (s *Storage) Upload(ctx context.Context, folderID, name, contentType string, body io.Reader, size int64) (assets.Object, error) {
	if contentType == "" {
		contentType = defaultType
	}
	id := childID(folderID)
	info, err := s.client.PutObject(ctx, s.bucket, id, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{nameMetaKey: encodeName(name)},
	})
	if err != nil {
		return assets.Object{}, fmt.Errorf("upload object: %w", err)
	}
	return assets.Object{ID: id, Name: name, ContentType: contentType, Size: info.Size}, nil
}

// Delete removes a file. S3 deletes are idempotent, so the object is checked
// first to report missing ids as NotFound.
func (s *Storage) Delete(ctx context.Context, id string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{}); err != nil {
		return mapErr(err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", mapErr(err))
	}
	return nil
}

// Stat returns the metadata of a file.
func (s *Storage) Stat(ctx context.Context, id string) (assets.Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{})
	if err != nil {
		return assets.Object{}, mapErr(err)
	}
	return assets.Object{
		ID:          id,
		Name:        displayName(info),
		ContentType: info.ContentType,
		Size:        info.Size,
	}, nil
}

// Open streams a file's content.
func (s *Storage) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapErr(err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, mapErr(err)
	}
	return obj, nil
}

// GrantPublicRead tags the object (or folder marker) with access=public-read.
// A bucket policy conditioned on s3:ExistingObjectTag/access serves tagged
// objects to anonymous readers.
func (s *Storage) GrantPublicRead(ctx context.Context, id string) error {
	key := id
	if _, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{}); err != nil {
		if !apperr.Is(mapErr(err), apperr.NotFound) {
			return mapErr(err)
		}
		key = markerKey(id)
	}
	t, err := tags.NewTags(map[string]string{accessTagKey: publicRead}, true)
	if err != nil {
		return err
	}
	if err := s.client.PutObjectTagging(ctx, s.bucket, key, t, minio.PutObjectTaggingOptions{}); err != nil {
		return fmt.Errorf("tag object: %w", mapErr(err))
	}
	return nil
}

// PurgeAll removes every object under prefix. An empty prefix empties the bucket.
func (s *Storage) PurgeAll(ctx context.Context, prefix string) (int, error) {
	objects := make(chan minio.ObjectInfo)
	listErr := make(chan error, 1)
	var listed atomic.Int64
	go func() {
		defer close(objects)
		for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if obj.Err != nil {
				listErr <- obj.Err
				return
			}
			select {
			case objects <- obj:
				listed.Add(1)
			case <-ctx.Done():
				return
			}
		}
	}()
	var errs []error
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("remove %s: %w", rerr.ObjectName, rerr.Err))
	}
	removed := int(listed.Load()) - len(errs)
	select {
	case err := <-listErr:
		errs = append(errs, err)
	default:
	}
	return removed, errors.Join(errs...)
}

func prefixOf(folderID string) string {
	if folderID == "" {
		return ""
	}
	return strings.TrimSuffix(folderID, "/") + "/"
}

func childID(parentID string) string {
	return prefixOf(parentID) + uuid.NewString()
}

func markerKey(folderID string) string {
	return prefixOf(folderID) + markerName
}

func isPrefix(key string) bool { return strings.HasSuffix(key, "/") }

func isMarker(key string) bool {
	return key == markerName || strings.HasSuffix(key, "/"+markerName)
}

// S3 user metadata must be US-ASCII.
func encodeName(name string) string { return url.QueryEscape(name) }

func decodeName(v string) string {
	name, err := url.QueryUnescape(v)
	if err != nil {
		return v
	}
	return name
}

func displayName(info minio.ObjectInfo) string {
	if v := info.Metadata.Get("X-Amz-Meta-" + nameMetaKey); v != "" {
		return decodeName(v)
	}
	if v, ok := info.UserMetadata[nameMetaKey]; ok {
		return decodeName(v)
	}
	key := info.Key
	if i := strings.LastIndex(key, "/"); i >= 0 {
		key = key[i+1:]
	}
	return key
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return apperr.New(apperr.NotFound, "file not found", err)
	}
	return err
}
