package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/nordiq/odatakit/pkg/odata"
	"github.com/nordiq/odatakit/pkg/odata/batch"
	"github.com/nordiq/odatakit/pkg/odata/edm"
	"github.com/nordiq/odatakit/pkg/odata/encode"
	"github.com/nordiq/odatakit/pkg/odata/errors"
	"github.com/nordiq/odatakit/pkg/odata/wire"
)

// Writer orchestrates entity writes: it decides whether each write becomes
// a standalone message or an operation appended to a batch, attaches
// precondition headers for concurrency checked types, and hands the actual
// tree building to the encoder.
//
// A Writer without a batch is safe for concurrent use; writes are fully
// independent and each produces its own stream. In batch mode the batch
// writer serializes operation framing.
type Writer struct {
	model edm.Model

	batch batch.Writer
	ids   *batch.Registry
}

func New(model edm.Model, options ...func(*Writer)) *Writer {
	w := &Writer{model: model}

	for _, option := range options {
		option(w)
	}

	return w
}

// InBatch routes all writes into the given batch writer. The batch is
// started lazily on first use.
func InBatch(b batch.Writer, ids *batch.Registry) func(*Writer) {
	return func(w *Writer) {
		w.batch = b
		w.ids = ids
	}
}

// Registry exposes the content-id registry in batch mode, nil otherwise.
func (w *Writer) Registry() *batch.Registry {
	return w.ids
}

// WriteEntry serializes one entity write. In standalone mode it returns
// the body stream and the headers the transport should attach. In batch
// mode the operation is written into the batch and both are nil, since the
// batch writer owns final transmission.
func (w *Writer) WriteEntry(ctx context.Context, method odata.Method, collection string, data map[string]any, requestPath string) (io.Reader, map[string][]string, error) {
	set, ok := w.model.EntitySet(collection)
	if !ok {
		return nil, nil, errors.NewNotFoundError(fmt.Sprintf("unknown entity set %s", collection))
	}

	entityType, ok := w.model.EntityType(set.TypeName)
	if !ok {
		return nil, nil, errors.NewNotFoundError(fmt.Sprintf("unknown entity type %s", set.TypeName))
	}

	headers := map[string][]string{}

	if entityType.RequiresETag && method.IsConditional() {
		headers["If-Match"] = []string{"*"}
	}

	if w.batch != nil {
		if err := w.batch.Start(ctx); err != nil {
			return nil, nil, err
		}

		if method != odata.MethodDelete {
			id := w.ids.NextContentID()
			w.ids.MapContentID(data, id)
			headers["Content-ID"] = []string{strconv.FormatInt(id, 10)}
		}
	}

	entry, err := encode.Entity(w.model, entityType, data, method, w.ids)
	if err != nil {
		return nil, nil, err
	}

	var body []byte

	if entry != nil {
		body, err = entry.MarshalJSON()
		if err != nil {
			return nil, nil, err
		}
		headers["Content-Type"] = []string{"application/json"}
	}

	logging.GetFromContext(ctx).Debug("serialized entry",
		"method", string(method), "collection", collection, "batched", w.batch != nil)

	if w.batch == nil {
		if entry == nil {
			return nil, headers, nil
		}
		return bytes.NewReader(body), headers, nil
	}

	op, err := w.batch.Operation(ctx, string(method), requestPath, headers)
	if err != nil {
		return nil, nil, err
	}

	if _, err := op.Write(body); err != nil {
		return nil, nil, err
	}

	return nil, nil, nil
}

// WriteLink serializes a reference write targeting relativePath (the $ref
// address of a navigation property) at the given target.
func (w *Writer) WriteLink(ctx context.Context, method odata.Method, relativePath string, target wire.Reference) (io.Reader, error) {
	body := []byte(`{"@odata.id":` + strconv.Quote(target.URI()) + `}`)

	if w.batch == nil {
		return bytes.NewReader(body), nil
	}

	if err := w.batch.Start(ctx); err != nil {
		return nil, err
	}

	headers := map[string][]string{
		"Content-Type": {"application/json"},
	}

	op, err := w.batch.Operation(ctx, string(method), relativePath, headers)
	if err != nil {
		return nil, err
	}

	if _, err := op.Write(body); err != nil {
		return nil, err
	}

	return nil, nil
}
