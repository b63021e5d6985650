package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	imageCacheControl   = "public, max-age=31536000, immutable"
	receiptCacheControl = "private, max-age=0"
)

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
	StorageClass    string
}

// Enabled reports whether enough is configured to open a client.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

// normalized fills defaults: an https scheme, region "auto", and a
// path-style public base on the endpoint.
func (c Config) normalized() (Config, error) {
	out := Config{
		Endpoint:        strings.TrimSpace(c.Endpoint),
		Region:          strings.TrimSpace(c.Region),
		AccessKeyID:     strings.TrimSpace(c.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(c.SecretAccessKey),
		Bucket:          strings.TrimSpace(c.Bucket),
		PublicBaseURL:   strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/"),
		StorageClass:    strings.ToUpper(strings.TrimSpace(c.StorageClass)),
	}
	if out.Endpoint == "" {
		return Config{}, fmt.Errorf("object store endpoint is required")
	}
	if out.Bucket == "" {
		return Config{}, fmt.Errorf("object store bucket is required")
	}
	if !strings.Contains(out.Endpoint, "://") {
		out.Endpoint = "https://" + out.Endpoint
	}
	if out.Region == "" {
		out.Region = "auto"
	}
	if out.PublicBaseURL == "" {
		out.PublicBaseURL = strings.TrimRight(out.Endpoint, "/") + "/" + out.Bucket
	}
	return out, nil
}

// ObjectStore keeps product photos and archived receipt PDFs in one
// S3-compatible bucket.
type ObjectStore struct {
	cfg    Config
	client *s3.Client
}

func NewObjectStore(ctx context.Context, raw Config) (*ObjectStore, error) {
	cfg, err := raw.normalized()
	if err != nil {
		return nil, err
	}

	endpoint := cfg.Endpoint
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, _ string, _ ...any) (aws.Endpoint, error) {
		if service == s3.ServiceID {
			return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("object store config: %w", err)
	}

	// MinIO and R2 expect path-style addressing.
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) { o.UsePathStyle = true })
	return &ObjectStore{cfg: cfg, client: client}, nil
}

func ReceiptKey(tenantID string, day time.Time, shortID string) string {
	return fmt.Sprintf("receipts/%s/%s/%s.pdf", tenantID, day.Format("2006-01-02"), shortID)
}

func ProductImageKey(tenantID, productID string, at time.Time) string {
	return fmt.Sprintf("products/%s/%s-%d.jpg", tenantID, productID, at.UnixMilli())
}

func (s *ObjectStore) publicURL(key string) string {
	return s.cfg.PublicBaseURL + "/" + key
}

// PutProductImage stores a normalised JPEG under a fresh key, so the
// returned URL can be cached forever.
func (s *ObjectStore) PutProductImage(ctx context.Context, tenantID, productID string, jpeg []byte, at time.Time) (string, error) {
	return s.put(ctx, ProductImageKey(tenantID, productID, at), jpeg, "image/jpeg", imageCacheControl)
}

// ArchiveReceipt stores a rendered receipt under the tenant's local day.
func (s *ObjectStore) ArchiveReceipt(ctx context.Context, tenantID, shortID string, day time.Time, pdf []byte) (string, error) {
	return s.put(ctx, ReceiptKey(tenantID, day, shortID), pdf, "application/pdf", receiptCacheControl)
}

func (s *ObjectStore) put(ctx context.Context, key string, body []byte, contentType, cacheControl string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	}
	if s.cfg.StorageClass != "" {
		input.StorageClass = types.StorageClass(s.cfg.StorageClass)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.publicURL(key), nil
}

// DeleteURL removes an object this store handed out. URLs outside the
// bucket are ignored.
func (s *ObjectStore) DeleteURL(ctx context.Context, raw string) error {
	key, ok := keyFromURL(s.cfg.PublicBaseURL, s.cfg.Bucket, raw)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// keyFromURL accepts both public-base URLs and path-style bucket URLs.
func keyFromURL(publicBase, bucket, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if rest, ok := strings.CutPrefix(raw, publicBase+"/"); ok {
		return rest, rest != ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	bucketPath, key, ok := strings.Cut(strings.TrimLeft(u.Path, "/"), "/")
	if !ok || bucketPath != bucket || key == "" {
		return "", false
	}
	return key, true
}
