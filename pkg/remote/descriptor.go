package remote

import (
	"io"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/strata-data/strata/pkg/model"
	"github.com/strata-data/strata/pkg/remote/status"
)

// Descriptor is the metadata header stored on a backend alongside the
// commit's data stream. Size is the exact data stream length, used to
// verify transfers on backends without atomic publish.
type Descriptor struct {
	ID         string                 `json:"id"`
	Properties map[string]interface{} `json:"properties"`
	Size       int64                  `json:"size"`
}

// Commit converts the descriptor back to the wire commit shape
func (d *Descriptor) Commit() *model.Commit {
	return &model.Commit{ID: d.ID, Properties: d.Properties}
}

// EncodeDescriptor serializes a descriptor for storage
func EncodeDescriptor(d *Descriptor) ([]byte, error) {
	return jsoniter.Marshal(d)
}

// DecodeDescriptor parses and validates a stored metadata header.
// Invalid headers surface status.ErrBadMetadata so a partially
// written remote commit is never handed to the caller.
func DecodeDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := jsoniter.Unmarshal(data, &d); err != nil {
		return nil, status.ErrBadMetadata.Wrap(err)
	}
	if err := model.ValidateCommitID(d.ID); err != nil {
		return nil, status.ErrBadMetadata.Wrap(err)
	}
	return &d, nil
}

// DecodeDescriptorList parses a JSON array of metadata headers.
// Entries with invalid headers are skipped, matching the per-commit
// listing behavior of the storage backed providers.
func DecodeDescriptorList(data []byte) ([]Descriptor, error) {
	var raw []jsoniter.RawMessage
	if err := jsoniter.Unmarshal(data, &raw); err != nil {
		return nil, status.ErrBadMetadata.Wrap(err)
	}
	descs := make([]Descriptor, 0, len(raw))
	for _, entry := range raw {
		d, err := DecodeDescriptor(entry)
		if err != nil {
			continue
		}
		descs = append(descs, *d)
	}
	return descs, nil
}

// ReadDescriptor decodes a metadata header from a stream
func ReadDescriptor(r io.Reader) (*Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeDescriptor(data)
}

// SortCommits orders remote listings the way the metadata store
// orders local ones: timestamp property descending.
func SortCommits(commits []model.Commit) {
	sort.SliceStable(commits, func(i, j int) bool {
		ti := model.CommitTimestamp(&commits[i], time.Time{})
		tj := model.CommitTimestamp(&commits[j], time.Time{})
		return ti.After(tj)
	})
}

// VerifiedReader fails with status.ErrVerification if the stream ends
// before (or after) the expected number of bytes.
type VerifiedReader struct {
	r        io.ReadCloser
	expected int64
	read     int64
}

// NewVerifiedReader wraps r with a length check against expected
func NewVerifiedReader(r io.ReadCloser, expected int64) *VerifiedReader {
	return &VerifiedReader{r: r, expected: expected}
}

func (v *VerifiedReader) Read(buf []byte) (int, error) {
	n, err := v.r.Read(buf)
	v.read += int64(n)
	if v.read > v.expected {
		return n, status.ErrVerification
	}
	if err == io.EOF && v.read != v.expected {
		return n, status.ErrVerification
	}
	return n, err
}

func (v *VerifiedReader) Close() error {
	return v.r.Close()
}
