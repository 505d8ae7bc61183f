// Package s3 implements the remote provider protocol against S3
// compatible object storage.
//
// Layout: each commit occupies "<path>/<id>/data" plus a
// "<path>/<id>/metadata.json" header. The header is written only
// after the data upload completed and its stored length was verified,
// so a listable commit always has valid metadata.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/strata-data/strata/pkg/model"
	"github.com/strata-data/strata/pkg/remote"
	"github.com/strata-data/strata/pkg/remote/status"
)

const (
	providerType = "s3"

	metadataName = "metadata.json"
	dataName     = "data"
)

// Option tunes the provider
type Option func(*s3Provider)

// WithClientFactory overrides S3 client construction, for tests and
// S3 compatible endpoints.
func WithClientFactory(f func(cfg *aws.Config) (*s3.S3, error)) Option {
	return func(p *s3Provider) {
		p.newClient = f
	}
}

// New creates the s3 provider
func New(options ...Option) remote.Provider {
	p := &s3Provider{
		newClient: func(cfg *aws.Config) (*s3.S3, error) {
			sess, err := session.NewSession(cfg)
			if err != nil {
				return nil, err
			}
			return s3.New(sess), nil
		},
	}
	for _, apply := range options {
		apply(p)
	}
	return p
}

type s3Provider struct {
	newClient func(cfg *aws.Config) (*s3.S3, error)
}

func (s *s3Provider) Type() string { return providerType }

// parameters is the decoded shape of an s3 remote's property map.
// Credentials are carried through to the SDK without interpretation.
type parameters struct {
	bucket    string
	path      string
	accessKey string
	secretKey string
	region    string
}

func decodeParameters(properties map[string]interface{}) (*parameters, error) {
	str := func(key string) string {
		v, _ := properties[key].(string)
		return v
	}
	p := &parameters{
		bucket:    str("bucket"),
		path:      str("path"),
		accessKey: str("accessKey"),
		secretKey: str("secretKey"),
		region:    str("region"),
	}
	if p.bucket == "" {
		return nil, model.InvalidArgument("s3 remote requires a 'bucket' parameter")
	}
	if (p.accessKey == "") != (p.secretKey == "") {
		return nil, model.InvalidArgument("s3 remote requires 'accessKey' and 'secretKey' together")
	}
	return p, nil
}

func (s *s3Provider) ValidateParameters(properties map[string]interface{}) error {
	_, err := decodeParameters(properties)
	return err
}

func (s *s3Provider) client(r *model.Remote) (*s3.S3, *parameters, error) {
	p, err := decodeParameters(r.Properties)
	if err != nil {
		return nil, nil, err
	}
	cfg := aws.NewConfig()
	if p.region != "" {
		cfg = cfg.WithRegion(p.region)
	}
	if p.accessKey != "" {
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(p.accessKey, p.secretKey, ""))
	}
	client, err := s.newClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, p, nil
}

func (p *parameters) key(commitID, name string) string {
	return path.Join(p.path, commitID, name)
}

func isNotFound(err error) bool {
	if rerr, ok := err.(awserr.RequestFailure); ok && rerr.StatusCode() == 404 {
		return true
	}
	if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
		return true
	}
	return false
}

func (s *s3Provider) ListCommits(ctx context.Context, r *model.Remote, filters []model.TagFilter) ([]model.Commit, error) {
	client, p, err := s.client(r)
	if err != nil {
		return nil, err
	}

	var keys []string
	suffix := "/" + metadataName
	eachPage := func(page *s3.ListObjectsOutput, more bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if len(key) > len(suffix) && key[len(key)-len(suffix):] == suffix {
				keys = append(keys, key)
			}
		}
		return more
	}
	prefix := p.path
	if prefix != "" {
		prefix += "/"
	}
	params := &s3.ListObjectsInput{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(prefix),
	}
	if err := client.ListObjectsPagesWithContext(ctx, params, eachPage); err != nil {
		return nil, err
	}

	commits := []model.Commit{}
	for _, key := range keys {
		desc, err := s.fetchDescriptor(ctx, client, p.bucket, key)
		if err != nil {
			// a commit whose header cannot be decoded is not listable
			continue
		}
		commit := desc.Commit()
		if model.MatchTags(commit, filters) {
			commits = append(commits, *commit)
		}
	}
	remote.SortCommits(commits)
	return commits, nil
}

func (s *s3Provider) fetchDescriptor(ctx context.Context, client *s3.S3, bucket, key string) (*remote.Descriptor, error) {
	obj, err := client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, status.ErrNotFound
		}
		return nil, err
	}
	defer obj.Body.Close()
	return remote.ReadDescriptor(obj.Body)
}

func (s *s3Provider) GetCommit(ctx context.Context, r *model.Remote, commitID string) (*model.Commit, error) {
	client, p, err := s.client(r)
	if err != nil {
		return nil, err
	}
	desc, err := s.fetchDescriptor(ctx, client, p.bucket, p.key(commitID, metadataName))
	if err != nil {
		return nil, err
	}
	return desc.Commit(), nil
}

func (s *s3Provider) Push(ctx context.Context, r *model.Remote, commit *model.Commit, data io.Reader, progress Sink) error {
	client, p, err := s.client(r)
	if err != nil {
		return err
	}

	_, err = client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(commit.ID, metadataName)),
	})
	if err == nil {
		return status.ErrExists
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to get head request: %v", err)
	}

	progress.Message("uploading data stream")
	counter := &countingReader{r: data}
	uploader := s3manager.NewUploaderWithClient(client)
	_, err = uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(commit.ID, dataName)),
		Body:   counter,
	})
	if err != nil {
		return err
	}

	// verify the stored object length before publishing metadata
	head, err := client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(commit.ID, dataName)),
	})
	if err != nil {
		return err
	}
	if aws.Int64Value(head.ContentLength) != counter.n {
		return status.ErrVerification
	}

	desc := &remote.Descriptor{ID: commit.ID, Properties: commit.Properties, Size: counter.n}
	encoded, err := remote.EncodeDescriptor(desc)
	if err != nil {
		return err
	}
	progress.Message("publishing commit metadata")
	_, err = client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(commit.ID, metadataName)),
		Body:   bytes.NewReader(encoded),
	})
	return err
}

func (s *s3Provider) Pull(ctx context.Context, r *model.Remote, commitID string, progress Sink) (*model.Commit, io.ReadCloser, error) {
	client, p, err := s.client(r)
	if err != nil {
		return nil, nil, err
	}

	desc, err := s.fetchDescriptor(ctx, client, p.bucket, p.key(commitID, metadataName))
	if err != nil {
		return nil, nil, err
	}

	progress.Message("downloading data stream")
	obj, err := client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(commitID, dataName)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, status.ErrNotFound
		}
		return nil, nil, err
	}
	rd := remote.NewVerifiedReader(obj.Body, desc.Size)
	return desc.Commit(), readCloser{
		Reader: remote.NewProgressReader(rd, desc.Size, progress),
		closer: rd,
	}, nil
}

// Sink aliases the provider progress sink for package users
type Sink = remote.Sink

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(buf []byte) (int, error) {
	n, err := c.r.Read(buf)
	c.n += int64(n)
	return n, err
}

type readCloser struct {
	io.Reader
	closer io.Closer
}

func (r readCloser) Close() error { return r.closer.Close() }
