package walletstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/paperwall/paperwall-agent/interfaces"
)

const s3WalletObject = "wallet.json"

// S3Store persists the wallet document in an S3-compatible bucket. It is the
// store of choice for headless agents paired with env-injected mode, where
// the host is disposable but the wallet is not. Credentials come from the
// standard AWS credential chain.
type S3Store struct {
	client      *s3.S3
	bucket      string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Store creates an S3-backed store. The endpoint is optional and allows
// S3-compatible services such as MinIO.
func NewS3Store(bucket, prefix, region, endpoint string, log *slog.Logger) (*S3Store, error) {
	cfg := aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucket, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	return &S3Store{
		client:      s3.New(sess),
		bucket:      bucket,
		prefix:      prefix,
		log:         log,
		locationURI: uri,
	}, nil
}

// Load fetches and decodes the wallet document from the bucket.
func (s *S3Store) Load(ctx context.Context) (*interfaces.WalletDocument, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey()),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, interfaces.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to fetch wallet from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet object: %w", err)
	}

	var doc interfaces.WalletDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse wallet object %s: %w", s.objectKey(), err)
	}
	return &doc, nil
}

// Save writes the wallet document wholesale to the bucket.
func (s *S3Store) Save(ctx context.Context, doc *interfaces.WalletDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode wallet document: %w", err)
	}

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey()),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to store wallet in S3: %w", err)
	}

	s.log.Debug("Stored wallet document",
		slog.String("bucket", s.bucket),
		slog.String("key", s.objectKey()))
	return nil
}

// Available reports whether the bucket is reachable.
func (s *S3Store) Available(ctx context.Context) bool {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		s.log.Debug("S3 wallet store unavailable", "err", err)
		return false
	}
	return true
}

// LocationURI identifies this store.
func (s *S3Store) LocationURI() string {
	return s.locationURI
}

func (s *S3Store) objectKey() string {
	return path.Join(s.prefix, s3WalletObject)
}
