package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3Store keeps each session as one JSON object in an S3-compatible
// bucket, mirroring the blob variant of the original deployment. Reads
// and writes are whole-object; last write wins.
type s3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// newS3Store builds the blob backend. A non-empty endpoint enables
// path-style addressing for MinIO and similar.
func newS3Store(ctx context.Context, cfg *Config) (*s3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.s3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.s3Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load AWS config: %v", ErrStoreUnavailable, err)
	}

	var s3opts []func(*s3.Options)
	if cfg.s3Endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.s3Endpoint)
			o.UsePathStyle = true
		})
	}

	return &s3Store{
		client: s3.NewFromConfig(awsCfg, s3opts...),
		bucket: cfg.s3Bucket,
		prefix: cfg.s3Prefix,
	}, nil
}

func (s *s3Store) objectKey(key string) string {
	return s.prefix + key + ".json"
}

func (s *s3Store) Create(ctx context.Context, sess *Session) error {
	// S3 has no conditional-put primitive we rely on; a read-before-
	// create keeps the DuplicateKey convention with a small race window,
	// same as every other operation on this backend.
	if _, err := s.Read(ctx, sess.Code); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, sess.Code)
	} else if !errors.Is(err, ErrSessionNotFound) {
		return err
	}

	return s.Write(ctx, sess.Code, sess)
}

func (s *s3Store) Read(ctx context.Context, key string) (*Session, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, key)
		}
		return nil, fmt.Errorf("%w: s3 get object: %v", ErrStoreUnavailable, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: s3 read body: %v", ErrStoreUnavailable, err)
	}

	return unmarshalSession(data)
}

func (s *s3Store) Write(ctx context.Context, key string, sess *Session) error {
	data, err := marshalSession(sess)
	if err != nil {
		return err
	}

	contentType := "application/json"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: s3 put object: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("%w: s3 delete object: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func (s *s3Store) Close() error {
	return nil
}
