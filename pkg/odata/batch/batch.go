package batch

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/nordiq/odatakit/pkg/odata/errors"
)

// Writer is the framing sink a batch of operations is written into. Start
// is lazy and idempotent; implementations must serialize it so that
// concurrent first users do not race the preamble.
type Writer interface {
	Start(ctx context.Context) error
	Operation(ctx context.Context, method, uri string, headers map[string][]string) (io.Writer, error)
	Close() error
}

// Registry maps queued entity data to batch content-ids by reference
// identity. Two maps with identical contents are still two entities, so
// keys are map allocation identities rather than values.
type Registry struct {
	ids  *xsync.MapOf[uintptr, int64]
	next atomic.Int64
}

func NewRegistry() *Registry {
	return &Registry{
		ids: xsync.NewMapOf[uintptr, int64](),
	}
}

// NextContentID allocates the next content-id, monotonic and unique for
// the lifetime of the registry.
func (r *Registry) NextContentID() int64 {
	return r.next.Add(1)
}

func (r *Registry) MapContentID(data map[string]any, id int64) {
	r.ids.Store(identity(data), id)
}

func (r *Registry) ContentID(data map[string]any) (int64, bool) {
	return r.ids.Load(identity(data))
}

func identity(data map[string]any) uintptr {
	return reflect.ValueOf(data).Pointer()
}

// MultipartWriter frames operations as a multipart/mixed batch containing
// a single change set, the way the protocol's $batch endpoint expects.
type MultipartWriter struct {
	mu      sync.Mutex
	started bool

	outer     *multipart.Writer
	changeset *multipart.Writer
}

func NewMultipartWriter(out io.Writer) *MultipartWriter {
	return &MultipartWriter{
		outer: multipart.NewWriter(out),
	}
}

// Boundary returns the outer boundary for use in the request Content-Type.
func (w *MultipartWriter) Boundary() string {
	return w.outer.Boundary()
}

// Start writes the batch preamble. The first caller performs the start;
// concurrent callers block on the mutex and find it already done.
func (w *MultipartWriter) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil
	}

	boundary := nextBoundary()

	changesetBody, err := w.outer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"multipart/mixed; boundary=" + boundary},
	})
	if err != nil {
		return fmt.Errorf("failed to open change set: %w", err)
	}

	w.changeset = multipart.NewWriter(changesetBody)
	if err := w.changeset.SetBoundary(boundary); err != nil {
		return fmt.Errorf("failed to set change set boundary: %w", err)
	}

	w.started = true

	return nil
}

// Operation appends one framed operation to the change set and returns the
// writer its body should be serialized into. Operations are framed in the
// order they are added.
func (w *MultipartWriter) Operation(ctx context.Context, method, uri string, headers map[string][]string) (io.Writer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return nil, errors.ErrBatchNotActive
	}

	partHeader := textproto.MIMEHeader{
		"Content-Type":              {"application/http"},
		"Content-Transfer-Encoding": {"binary"},
	}
	for name, values := range headers {
		if id, ok := contentID(name, values); ok {
			partHeader.Set("Content-ID", id)
		}
	}

	part, err := w.changeset.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to open operation part: %w", err)
	}

	fmt.Fprintf(part, "%s %s HTTP/1.1\r\n", method, uri)
	for name, values := range headers {
		if _, ok := contentID(name, values); ok {
			continue
		}
		for _, v := range values {
			fmt.Fprintf(part, "%s: %s\r\n", name, v)
		}
	}
	fmt.Fprint(part, "\r\n")

	return part, nil
}

func (w *MultipartWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.changeset != nil {
		if err := w.changeset.Close(); err != nil {
			return err
		}
	}

	return w.outer.Close()
}

func contentID(name string, values []string) (string, bool) {
	if name != "Content-ID" || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

var boundarySeq atomic.Int64

func nextBoundary() string {
	return "changeset_" + strconv.FormatInt(boundarySeq.Add(1), 10)
}
