// Package engine implements the remote provider protocol against the
// proprietary storage engine's REST API.
//
// The engine archives a commit as a data stream plus a metadata
// header. The header is published last, mirroring the object storage
// providers: a commit the engine lists always carries complete
// metadata.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/strata-data/strata/pkg/model"
	"github.com/strata-data/strata/pkg/remote"
	"github.com/strata-data/strata/pkg/remote/status"
)

const providerType = "engine"

// Option tunes the provider
type Option func(*engineProvider)

// WithHTTPClient overrides the HTTP client, for tests
func WithHTTPClient(c *http.Client) Option {
	return func(p *engineProvider) {
		p.client = c
	}
}

// New creates the engine provider
func New(options ...Option) remote.Provider {
	p := &engineProvider{
		client: http.DefaultClient,
	}
	for _, apply := range options {
		apply(p)
	}
	return p
}

type engineProvider struct {
	client *http.Client
}

func (e *engineProvider) Type() string { return providerType }

type parameters struct {
	address  string
	username string
	password string
	path     string
}

func decodeParameters(properties map[string]interface{}) (*parameters, error) {
	str := func(key string) string {
		v, _ := properties[key].(string)
		return v
	}
	p := &parameters{
		address:  str("address"),
		username: str("username"),
		password: str("password"),
		path:     str("path"),
	}
	if p.address == "" {
		return nil, model.InvalidArgument("engine remote requires an 'address' parameter")
	}
	u, err := url.Parse(p.address)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, model.InvalidArgument("engine remote address '%s' is not a valid URL", p.address)
	}
	if (p.username == "") != (p.password == "") {
		return nil, model.InvalidArgument("engine remote requires 'username' and 'password' together")
	}
	return p, nil
}

func (e *engineProvider) ValidateParameters(properties map[string]interface{}) error {
	_, err := decodeParameters(properties)
	return err
}

func (p *parameters) endpoint(segments ...string) string {
	u := p.address + "/api/commits"
	for _, s := range segments {
		u += "/" + url.PathEscape(s)
	}
	if p.path != "" {
		u += "?path=" + url.QueryEscape(p.path)
	}
	return u
}

func (e *engineProvider) do(ctx context.Context, p *parameters, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if p.username != "" {
		req.SetBasicAuth(p.username, p.password)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, status.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, status.ErrForbidden
	case resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, fmt.Errorf("engine returned status %d for %s %s", resp.StatusCode, method, endpoint)
	}
	return resp, nil
}

func (e *engineProvider) ListCommits(ctx context.Context, r *model.Remote, filters []model.TagFilter) ([]model.Commit, error) {
	p, err := decodeParameters(r.Properties)
	if err != nil {
		return nil, err
	}
	resp, err := e.do(ctx, p, http.MethodGet, p.endpoint(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	descs, err := remote.DecodeDescriptorList(data)
	if err != nil {
		return nil, err
	}
	commits := []model.Commit{}
	for i := range descs {
		commit := descs[i].Commit()
		if model.MatchTags(commit, filters) {
			commits = append(commits, *commit)
		}
	}
	remote.SortCommits(commits)
	return commits, nil
}

func (e *engineProvider) getDescriptor(ctx context.Context, p *parameters, commitID string) (*remote.Descriptor, error) {
	resp, err := e.do(ctx, p, http.MethodGet, p.endpoint(commitID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return remote.ReadDescriptor(resp.Body)
}

func (e *engineProvider) GetCommit(ctx context.Context, r *model.Remote, commitID string) (*model.Commit, error) {
	p, err := decodeParameters(r.Properties)
	if err != nil {
		return nil, err
	}
	desc, err := e.getDescriptor(ctx, p, commitID)
	if err != nil {
		return nil, err
	}
	return desc.Commit(), nil
}

func (e *engineProvider) Push(ctx context.Context, r *model.Remote, commit *model.Commit, data io.Reader, progress Sink) error {
	p, err := decodeParameters(r.Properties)
	if err != nil {
		return err
	}

	if _, err := e.getDescriptor(ctx, p, commit.ID); err == nil {
		return status.ErrExists
	} else if !isNotFound(err) {
		return err
	}

	progress.Message("uploading data stream")
	counter := &countingReader{r: data}
	resp, err := e.do(ctx, p, http.MethodPut, p.endpoint(commit.ID, "data"), counter)
	if err != nil {
		return err
	}
	resp.Body.Close()

	desc := &remote.Descriptor{ID: commit.ID, Properties: commit.Properties, Size: counter.n}
	encoded, err := remote.EncodeDescriptor(desc)
	if err != nil {
		return err
	}
	progress.Message("publishing commit metadata")
	resp, err = e.do(ctx, p, http.MethodPut, p.endpoint(commit.ID), bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (e *engineProvider) Pull(ctx context.Context, r *model.Remote, commitID string, progress Sink) (*model.Commit, io.ReadCloser, error) {
	p, err := decodeParameters(r.Properties)
	if err != nil {
		return nil, nil, err
	}

	desc, err := e.getDescriptor(ctx, p, commitID)
	if err != nil {
		return nil, nil, err
	}

	progress.Message("downloading data stream")
	resp, err := e.do(ctx, p, http.MethodGet, p.endpoint(commitID, "data"), nil)
	if err != nil {
		return nil, nil, err
	}
	rd := remote.NewVerifiedReader(resp.Body, desc.Size)
	return desc.Commit(), readCloser{
		Reader: remote.NewProgressReader(rd, desc.Size, progress),
		closer: rd,
	}, nil
}

func isNotFound(err error) bool {
	return err == status.ErrNotFound
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
