// Package objstore stores contract documents and gallery photos in an
// S3-compatible bucket (Wasabi in production, MinIO elsewhere).
//
// Key layout:
//
//	documents/<CONTRACTID>/<section>/<docName>/<stamp>-<file>
//	gallery/<CONTRACTID>/<stamp>-<file>
package objstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"sitewatch/api/internal/contract"
)

// Options configures the bucket connection.
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PublicURL string        // if set, object URLs are PublicURL/<key>
	URLExpiry time.Duration // presigned URL lifetime when PublicURL is empty
}

// Store wraps one bucket.
type Store struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
	urlExpiry time.Duration
}

// Document is one uploaded contract document (latest version per slot).
type Document struct {
	Section   string `json:"section"`
	DocName   string `json:"docName"`
	FileName  string `json:"fileName"`
	Key       string `json:"key"`
	URL       string `json:"url"`
	UpdatedAt string `json:"updatedAt"`
}

// Photo is one gallery image.
type Photo struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	URL  string `json:"url"`
	Date string `json:"date"`
}

// DocumentSlot identifies one expected document of one contract.
type DocumentSlot struct {
	Contract string
	Section  string
	DocName  string
}

// New connects to the bucket endpoint.
func New(opts Options) (*Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	expiry := opts.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Store{
		client:    client,
		bucket:    opts.Bucket,
		region:    opts.Region,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		urlExpiry: expiry,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string { return s.bucket }

// Region returns the configured region.
func (s *Store) Region() string { return s.region }

// PublicURL returns the configured public base URL, if any.
func (s *Store) PublicURL() string { return s.publicURL }

// UploadDocument stores a document version and returns its metadata.
func (s *Store) UploadDocument(ctx context.Context, contractID, section, docName, fileName, contentType string, r io.Reader, size int64) (Document, error) {
	contractID = contract.NormalizeID(contractID)
	section = strings.TrimSpace(section)
	docName = strings.TrimSpace(docName)
	if contractID == "" || section == "" || docName == "" {
		return Document{}, fmt.Errorf("missing contract id, section, or document name")
	}

	key := buildDocumentKey(contractID, section, docName, fileName)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"contractId": contractID,
			"section":    section,
			"docName":    docName,
		},
	})
	if err != nil {
		return Document{}, fmt.Errorf("upload document: %w", err)
	}

	objURL, err := s.objectURL(ctx, key)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Section:   section,
		DocName:   docName,
		FileName:  fileName,
		Key:       key,
		URL:       objURL,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ListDocuments returns the latest uploaded version of every document slot
// for one contract.
func (s *Store) ListDocuments(ctx context.Context, contractID string) ([]Document, error) {
	contractID = contract.NormalizeID(contractID)
	if contractID == "" {
		return nil, fmt.Errorf("missing contract id")
	}

	prefix := "documents/" + safeKeyPart(contractID) + "/"
	objects, err := s.listAll(ctx, prefix)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		doc          Document
		lastModified time.Time
	}
	latest := make(map[string]candidate)
	for _, obj := range objects {
		parts := strings.Split(obj.Key, "/")
		if len(parts) < 5 {
			continue
		}
		section := decodeKeyPart(parts[2])
		docName := decodeKeyPart(parts[3])
		if section == "" || docName == "" {
			continue
		}
		id := section + "||" + docName
		existing, ok := latest[id]
		if ok && !obj.LastModified.After(existing.lastModified) {
			continue
		}
		latest[id] = candidate{
			doc: Document{
				Section:   section,
				DocName:   docName,
				FileName:  strings.Join(parts[4:], "/"),
				Key:       obj.Key,
				UpdatedAt: obj.LastModified.UTC().Format(time.RFC3339),
			},
			lastModified: obj.LastModified,
		}
	}

	documents := make([]Document, 0, len(latest))
	for _, c := range latest {
		objURL, err := s.objectURL(ctx, c.doc.Key)
		if err != nil {
			return nil, err
		}
		c.doc.URL = objURL
		documents = append(documents, c.doc)
	}
	sort.Slice(documents, func(i, j int) bool {
		if documents[i].Section != documents[j].Section {
			return documents[i].Section < documents[j].Section
		}
		return documents[i].DocName < documents[j].DocName
	})
	return documents, nil
}

// DeleteDocument removes every stored version of one document slot.
func (s *Store) DeleteDocument(ctx context.Context, contractID, section, docName string) error {
	contractID = contract.NormalizeID(contractID)
	if contractID == "" || strings.TrimSpace(section) == "" || strings.TrimSpace(docName) == "" {
		return fmt.Errorf("missing contract id, section, or document name")
	}
	prefix := "documents/" + safeKeyPart(contractID) + "/" + safeKeyPart(section) + "/" + safeKeyPart(docName) + "/"
	return s.deleteAll(ctx, prefix)
}

// DocumentSlots returns one entry per uploaded (contract, section, docName)
// triple, for the documents summary.
func (s *Store) DocumentSlots(ctx context.Context) ([]DocumentSlot, error) {
	objects, err := s.listAll(ctx, "documents/")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var slots []DocumentSlot
	for _, obj := range objects {
		parts := strings.Split(obj.Key, "/")
		if len(parts) < 5 {
			continue
		}
		slot := DocumentSlot{
			Contract: strings.ToUpper(decodeKeyPart(parts[1])),
			Section:  decodeKeyPart(parts[2]),
			DocName:  decodeKeyPart(parts[3]),
		}
		if slot.Contract == "" || slot.Section == "" || slot.DocName == "" {
			continue
		}
		id := slot.Contract + "||" + slot.Section + "||" + slot.DocName
		if seen[id] {
			continue
		}
		seen[id] = true
		slots = append(slots, slot)
	}
	return slots, nil
}

// UploadPhoto stores one gallery image.
func (s *Store) UploadPhoto(ctx context.Context, contractID, fileName, contentType string, r io.Reader, size int64) (Photo, error) {
	contractID = contract.NormalizeID(contractID)
	if contractID == "" {
		return Photo{}, fmt.Errorf("missing contract id")
	}

	key := buildGalleryKey(contractID, fileName)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"contractId": contractID},
	})
	if err != nil {
		return Photo{}, fmt.Errorf("upload photo: %w", err)
	}

	objURL, err := s.objectURL(ctx, key)
	if err != nil {
		return Photo{}, err
	}
	return Photo{
		Name: fileName,
		Key:  key,
		URL:  objURL,
		Date: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ListPhotos returns a contract's gallery, newest first.
func (s *Store) ListPhotos(ctx context.Context, contractID string) ([]Photo, error) {
	contractID = contract.NormalizeID(contractID)
	if contractID == "" {
		return nil, fmt.Errorf("missing contract id")
	}

	prefix := "gallery/" + safeKeyPart(contractID) + "/"
	objects, err := s.listAll(ctx, prefix)
	if err != nil {
		return nil, err
	}

	photos := make([]Photo, 0, len(objects))
	for _, obj := range objects {
		parts := strings.Split(obj.Key, "/")
		if len(parts) < 3 {
			continue
		}
		objURL, err := s.objectURL(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		photos = append(photos, Photo{
			Name: strings.Join(parts[2:], "/"),
			Key:  obj.Key,
			URL:  objURL,
			Date: obj.LastModified.UTC().Format(time.RFC3339),
		})
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].Date > photos[j].Date })
	return photos, nil
}

// DeleteGallery removes a contract's whole gallery.
func (s *Store) DeleteGallery(ctx context.Context, contractID string) error {
	contractID = contract.NormalizeID(contractID)
	if contractID == "" {
		return fmt.Errorf("missing contract id")
	}
	return s.deleteAll(ctx, "gallery/"+safeKeyPart(contractID)+"/")
}

func (s *Store) listAll(ctx context.Context, prefix string) ([]minio.ObjectInfo, error) {
	var objects []minio.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (s *Store) deleteAll(ctx context.Context, prefix string) error {
	objects, err := s.listAll(ctx, prefix)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("delete object %s: %w", obj.Key, err)
		}
	}
	return nil
}

func (s *Store) objectURL(ctx context.Context, key string) (string, error) {
	if s.publicURL != "" {
		return s.publicURL + "/" + key, nil
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object url: %w", err)
	}
	return presigned.String(), nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
var repeatedUnderscores = regexp.MustCompile(`_+`)

func sanitizeFilename(name string) string {
	if strings.TrimSpace(name) == "" {
		name = "file"
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = repeatedUnderscores.ReplaceAllString(name, "_")
	if len(name) > 180 {
		name = name[:180]
	}
	return name
}

func safeKeyPart(value string) string {
	return url.PathEscape(strings.TrimSpace(value))
}

func decodeKeyPart(value string) string {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}

func keyStamp() string {
	stamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
}

func buildDocumentKey(contractID, section, docName, fileName string) string {
	return "documents/" + safeKeyPart(contractID) + "/" + safeKeyPart(section) + "/" +
		safeKeyPart(docName) + "/" + keyStamp() + "-" + sanitizeFilename(fileName)
}

func buildGalleryKey(contractID, fileName string) string {
	return "gallery/" + safeKeyPart(contractID) + "/" + keyStamp() + "-" + sanitizeFilename(fileName)
}
