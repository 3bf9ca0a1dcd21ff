package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Store persists one JSON object per record in an S3-compatible bucket.
// Object PUTs are atomic, giving the same per-record guarantee as the file
// backend.
type S3Store struct {
	s3     *s3.Client
	bucket string
	prefix string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// S3Options configures the object-storage backend.
type S3Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
}

// NewS3Store creates a store backed by an S3-compatible bucket.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts,
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: fmt.Errorf("failed to load AWS config: %w", err)}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &S3Store{
		s3:     client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

func (s *S3Store) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *S3Store) key(name string) string {
	return path.Join(s.prefix, name+".json")
}

// Load lists and reads all records under the configured prefix.
func (s *S3Store) Load(ctx context.Context) (map[string]Record, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}

	records := make(map[string]Record)
	paginator := s3.NewListObjectsV2Paginator(s.s3, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &StoreError{Op: "load", Err: err}
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || !strings.HasSuffix(*obj.Key, ".json") {
				continue
			}
			name := strings.TrimSuffix(path.Base(*obj.Key), ".json")
			rec, ok, err := s.Get(ctx, name)
			if err != nil {
				return nil, err
			}
			if ok {
				records[name] = rec
			}
		}
	}
	return records, nil
}

// Get reads a single record object.
func (s *S3Store) Get(ctx context.Context, name string) (Record, bool, error) {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	result, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return Record{}, false, nil
		}
		return Record{}, false, &StoreError{Op: "get", Err: err}
	}
	defer result.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return Record{}, false, &StoreError{Op: "get", Err: err}
	}

	var rec Record
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		return Record{}, false, &StoreError{Op: "get", Err: fmt.Errorf("corrupt record %q: %w", name, err)}
	}
	return rec, true, nil
}

// Save replaces the record object for rec.Name.
func (s *S3Store) Save(ctx context.Context, rec Record) error {
	l := s.lock(rec.Name)
	l.Lock()
	defer l.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return &StoreError{Op: "save", Err: err}
	}

	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(rec.Name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	return nil
}

// Delete removes the record object for a logical name.
func (s *S3Store) Delete(ctx context.Context, name string) error {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	_, err := s.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil && !isNoSuchKey(err) {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

// isNoSuchKey checks for a missing object. S3-compatible services do not
// always return the exact SDK error types, so fall back to the API code.
func isNoSuchKey(err error) bool {
	if err == nil {
		return false
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound" || code == "404"
	}
	return false
}
