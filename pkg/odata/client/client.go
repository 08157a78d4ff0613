package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nordiq/odatakit/pkg/odata"
	"github.com/nordiq/odatakit/pkg/odata/batch"
	"github.com/nordiq/odatakit/pkg/odata/edm"
	"github.com/nordiq/odatakit/pkg/odata/errors"
	"github.com/nordiq/odatakit/pkg/odata/request"
	"github.com/nordiq/odatakit/pkg/odata/wire"
)

// ServiceClient sends serialized entity writes to an OData service.
type ServiceClient interface {
	CreateEntity(ctx context.Context, collection string, data map[string]any) (*odata.CreateEntityResult, error)
	UpdateEntity(ctx context.Context, collection string, key any, data map[string]any) error
	ReplaceEntity(ctx context.Context, collection string, key any, data map[string]any) error
	DeleteEntity(ctx context.Context, collection string, key any) error
	LinkEntities(ctx context.Context, ownerPath string, target wire.Reference) error
	SubmitBatch(ctx context.Context, operations func(*request.Writer) error) error
}

func Debug(enabled string) func(*svcClient) {
	return func(c *svcClient) {
		c.debug = (enabled == "true")
	}
}

func New(serviceURL string, model edm.Model, options ...func(*svcClient)) ServiceClient {
	c := &svcClient{
		baseURL: serviceURL,
		model:   model,
	}

	for _, option := range options {
		option(c)
	}

	return c
}

const TraceAttributeCollection string = "odata-collection"

var tracer = otel.Tracer("odatakit/client")

type svcClient struct {
	baseURL string
	model   edm.Model
	debug   bool
}

func (c svcClient) CreateEntity(ctx context.Context, collection string, data map[string]any) (*odata.CreateEntityResult, error) {
	var err error

	ctx, span := tracer.Start(ctx, "create-entity",
		trace.WithAttributes(attribute.String(TraceAttributeCollection, collection)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	w := request.New(c.model)

	body, headers, err := w.WriteEntry(ctx, odata.MethodPost, collection, data, collection)
	if err != nil {
		return nil, err
	}

	resp, respBody, err := c.callService(ctx, http.MethodPost, c.baseURL+"/"+collection, body, headers)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		err = errors.NewBadResponseError(resp.StatusCode, respBody)
		return nil, err
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		err = fmt.Errorf("unexpected response code %d (%w)", resp.StatusCode, errors.ErrInternal)
		return nil, err
	}

	return odata.NewCreateEntityResult(resp.Header.Get("Location")), nil
}

func (c svcClient) UpdateEntity(ctx context.Context, collection string, key any, data map[string]any) error {
	return c.writeExisting(ctx, odata.MethodPatch, collection, key, data)
}

func (c svcClient) ReplaceEntity(ctx context.Context, collection string, key any, data map[string]any) error {
	return c.writeExisting(ctx, odata.MethodPut, collection, key, data)
}

func (c svcClient) DeleteEntity(ctx context.Context, collection string, key any) error {
	return c.writeExisting(ctx, odata.MethodDelete, collection, key, nil)
}

func (c svcClient) writeExisting(ctx context.Context, method odata.Method, collection string, key any, data map[string]any) error {
	var err error

	ctx, span := tracer.Start(ctx, "write-entity",
		trace.WithAttributes(attribute.String(TraceAttributeCollection, collection)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	path := collection + "(" + edm.FormatKeyValue(key) + ")"

	w := request.New(c.model)

	body, headers, err := w.WriteEntry(ctx, method, collection, data, path)
	if err != nil {
		return err
	}

	resp, respBody, err := c.callService(ctx, string(method), c.baseURL+"/"+path, body, headers)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		err = errors.NewBadResponseError(resp.StatusCode, respBody)
		return err
	}

	return nil
}

func (c svcClient) LinkEntities(ctx context.Context, ownerPath string, target wire.Reference) error {
	var err error

	ctx, span := tracer.Start(ctx, "link-entities")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	w := request.New(c.model)

	body, err := w.WriteLink(ctx, odata.MethodPut, ownerPath+"/$ref", target)
	if err != nil {
		return err
	}

	headers := map[string][]string{"Content-Type": {"application/json"}}

	resp, respBody, err := c.callService(ctx, http.MethodPut, c.baseURL+"/"+ownerPath+"/$ref", body, headers)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		err = errors.NewBadResponseError(resp.StatusCode, respBody)
		return err
	}

	return nil
}

// SubmitBatch collects the writes issued by the operations callback into a
// single batch envelope and submits it in one round trip. Entities queued
// here may reference each other by content-id before they have real keys.
func (c svcClient) SubmitBatch(ctx context.Context, operations func(*request.Writer) error) error {
	var err error

	ctx, span := tracer.Start(ctx, "submit-batch")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var envelope bytes.Buffer

	bw := batch.NewMultipartWriter(&envelope)
	w := request.New(c.model, request.InBatch(bw, batch.NewRegistry()))

	if err = operations(w); err != nil {
		return err
	}

	if err = bw.Close(); err != nil {
		return err
	}

	headers := map[string][]string{
		"Content-Type": {"multipart/mixed; boundary=" + bw.Boundary()},
	}

	resp, respBody, err := c.callService(ctx, http.MethodPost, c.baseURL+"/$batch", &envelope, headers)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		err = errors.NewBadResponseError(resp.StatusCode, respBody)
		return err
	}

	return nil
}

func (c svcClient) callService(ctx context.Context, method, endpoint string, body io.Reader, headers map[string][]string) (*http.Response, []byte, error) {
	httpClient := http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %s (%w)", err.Error(), errors.ErrInternal)
	}

	for header, headerValue := range headers {
		for _, val := range headerValue {
			req.Header.Add(header, val)
		}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %s (%w)", err.Error(), errors.ErrBadResponse)
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %s (%w)", err.Error(), errors.ErrBadResponse)
	}

	if c.debug && resp.StatusCode >= http.StatusBadRequest {
		reqbytes, _ := httputil.DumpRequest(req, false)
		respbytes, _ := httputil.DumpResponse(resp, false)

		log := logging.GetFromContext(ctx)
		log.Error("request failed", "request", string(reqbytes), "response", string(respbytes))
	}

	return resp, respBody, nil
}
