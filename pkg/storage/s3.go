package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client is the slice of the S3 API that S3Store needs. An *s3.Client
// satisfies it; tests substitute an in-memory fake.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store keeps files in an S3 bucket (or any S3-compatible store).
// Storage paths become object keys, optionally under a fixed prefix.
// Credentials, region and endpoint belong to the injected client.
type S3Store struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3 wraps a configured S3 client. prefix may be empty.
func NewS3(client S3Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

// Read streams the object body. A missing key surfaces as an error
// wrapping os.ErrNotExist, matching the Local backend.
func (s *S3Store) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("storage: read %s: %w", path, os.ErrNotExist)
		}
		return nil, err
	}
	return out.Body, nil
}

// Write starts a PutObject in the background and hands the caller the
// write end of a pipe. Close finishes the upload and reports its error,
// so recordings stream to S3 without buffering the whole file.
func (s *S3Store) Write(ctx context.Context, path string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	u := &uploader{pw: pw, done: make(chan struct{})}
	go func() {
		defer close(u.done)
		_, u.err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(path)),
			Body:   pr,
		})
		// A failed upload stops reading; unblock pending writes.
		pr.CloseWithError(u.err)
	}()
	return u, nil
}

func (s *S3Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	return err
}

func (s *S3Store) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	switch {
	case err == nil:
		return true, nil
	case notFound(err):
		return false, nil
	default:
		return false, err
	}
}

// uploader bridges Write calls into the background PutObject.
type uploader struct {
	pw   *io.PipeWriter
	done chan struct{}
	err  error
}

func (u *uploader) Write(p []byte) (int, error) {
	return u.pw.Write(p)
}

func (u *uploader) Close() error {
	u.pw.Close()
	<-u.done
	return u.err
}

// notFound matches the error codes S3 uses for missing objects.
// HeadObject reports "NotFound", GetObject reports "NoSuchKey".
func notFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.ErrorCode()
	return code == "NotFound" || code == "NoSuchKey"
}

var _ FileStore = (*S3Store)(nil)
