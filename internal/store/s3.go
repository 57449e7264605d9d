package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/debemdeboas/inkwell/internal/errs"
	"github.com/debemdeboas/inkwell/internal/util/compression"
	"github.com/google/uuid"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps one gzip-encoded JSON object per document under <collection>/<id>.json.
// A single PutObject is atomic: readers see the whole object or nothing.
type S3Store struct { // implements Store
	client S3API
	bucket string

	compressor compression.Compressor
	now        func() time.Time
}

type S3Options struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	AccessKeySecret string
}

func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.AccessKeySecret, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3StoreWithClient(client, opts.Bucket), nil
}

func NewS3StoreWithClient(client S3API, bucket string) *S3Store {
	return &S3Store{
		client:     client,
		bucket:     bucket,
		compressor: compression.GzipCompressor{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func objectKey(collectionPath, id string) string {
	return collectionPath + "/" + id + ".json"
}

func isNoSuchKey(err error) bool {
	var notFound *types.NoSuchKey
	return err != nil && errors.As(err, &notFound)
}

func (s *S3Store) AddDocument(ctx context.Context, collectionPath string, doc Document) (DocumentRef, error) {
	if err := ValidateCollection(collectionPath); err != nil {
		return DocumentRef{}, err
	}

	payload, err := json.Marshal(ResolveServerTimestamps(doc, s.now()))
	if err != nil {
		return DocumentRef{}, fmt.Errorf("error encoding document: %w", err)
	}

	body, err := s.compressor.Compress(payload)
	if err != nil {
		return DocumentRef{}, fmt.Errorf("error compressing document: %w", err)
	}

	ref := DocumentRef{Collection: collectionPath, ID: uuid.NewString()}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(objectKey(ref.Collection, ref.ID)),
		Body:            bytes.NewReader(body),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return DocumentRef{}, fmt.Errorf("error saving document: %w", err)
	}

	storeLogger.Debug().Str("bucket", s.bucket).Str("collection", ref.Collection).Str("id", ref.ID).Msg("Document saved")
	return ref, nil
}

func (s *S3Store) GetDocument(ctx context.Context, collectionPath, id string) (Document, error) {
	return s.getByKey(ctx, objectKey(collectionPath, id))
}

func (s *S3Store) getByKey(ctx context.Context, key string) (Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if isNoSuchKey(err) {
		return nil, fmt.Errorf("document %s: %w", key, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading document: %w", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading document body: %w", err)
	}

	payload, err := s.compressor.Decompress(body)
	if err != nil {
		return nil, fmt.Errorf("error decompressing document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("error decoding document: %w", err)
	}
	return doc, nil
}

func (s *S3Store) ListDocuments(ctx context.Context, collectionPath string) ([]StoredDocument, error) {
	prefix := collectionPath + "/"
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var objects []types.Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing documents: %w", err)
		}
		objects = append(objects, page.Contents...)
	}

	slices.SortStableFunc(objects, func(a, b types.Object) int {
		return aws.ToTime(a.LastModified).Compare(aws.ToTime(b.LastModified))
	})

	docs := make([]StoredDocument, 0, len(objects))
	for _, obj := range objects {
		key := aws.ToString(obj.Key)
		if !strings.HasSuffix(key, ".json") {
			continue
		}

		data, err := s.getByKey(ctx, key)
		if err != nil {
			storeLogger.Error().Err(err).Str("key", key).Msg("Error reading listed document")
			continue
		}
		docs = append(docs, StoredDocument{
			Ref:  DocumentRef{Collection: collectionPath, ID: strings.TrimSuffix(strings.TrimPrefix(key, prefix), ".json")},
			Data: data,
		})
	}

	return docs, nil
}

func (s *S3Store) Close() error {
	return nil
}
