package remote

import (
	"io"
)

// Sink receives progress events from a provider during a transfer.
type Sink interface {
	Message(msg string)
	Progress(percent int)
}

type nopSink struct{}

func (nopSink) Message(string) {}
func (nopSink) Progress(int)   {}

// NopSink discards all progress events
func NopSink() Sink { return nopSink{} }

// ProgressReader reports percentage progress to a sink while a data
// stream of known size is consumed. Repeated percentages are
// suppressed.
type ProgressReader struct {
	r     io.Reader
	total int64
	read  int64
	last  int
	sink  Sink
}

// NewProgressReader wraps r; total <= 0 disables reporting.
func NewProgressReader(r io.Reader, total int64, sink Sink) *ProgressReader {
	return &ProgressReader{r: r, total: total, last: -1, sink: sink}
}

func (p *ProgressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct != p.last {
			p.last = pct
			p.sink.Progress(pct)
		}
	}
	return n, err
}
