package http

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MultipartClient uploads MultipartRequesters as multipart/form-data and reports
// progress through the client's ProgressHandler.
type MultipartClient struct {
	*Client
}

func NewMultipartClient(hostURL string, opts ...ClientOption) *MultipartClient {
	return &MultipartClient{Client: NewClient(hostURL, opts...)}
}

// Execute dispatches a multipart request. Any other request is rejected with
// ErrRequestKindMismatch.
func (c *MultipartClient) Execute(ctx context.Context, req Requester) *Call {
	if _, ok := req.(MultipartRequester); !ok {
		return rejected(req, fmt.Errorf("%w: multipart client requires a multipart request", ErrRequestKindMismatch))
	}
	return c.dispatch(ctx, req, KindMultipart, c.upload)
}

func (c *MultipartClient) upload(ctx context.Context, call *Call, requestURL string) *RawResponse {
	req := call.Request().(MultipartRequester)

	body, err := openMultipartBody(req)
	if err != nil {
		return &RawResponse{Request: req, URL: requestURL, Err: err}
	}
	defer body.close()

	size, err := body.size()
	if err != nil {
		return &RawResponse{Request: req, URL: requestURL, Err: fmt.Errorf("failed to size multipart body: %w", err)}
	}
	progress := newProgressTracker(req, c.progressHandler)
	progress.grow(size)

	stream := body.stream()
	defer stream.Close()

	// an io.Reader body is handed to the transport unbuffered, so progress follows the wire
	r := c.newRestyRequest(ctx, call).
		SetHeader("Content-Type", body.contentType()).
		SetBody(progress.wrap(stream))

	resp, err := r.Execute(req.Method().String(), requestURL)
	raw := newRawResponse(req, requestURL, resp, err)
	if raw.Err == nil {
		progress.finish()
	}
	return raw
}

type filePart struct {
	field    string
	filename string
	file     *os.File
	size     int64
}

// multipartBody streams form fields and file parts as multipart/form-data
type multipartBody struct {
	boundary string
	fields   map[string]string
	parts    []filePart
}

func openMultipartBody(req MultipartRequester) (*multipartBody, error) {
	body := &multipartBody{
		boundary: multipart.NewWriter(io.Discard).Boundary(),
		fields:   formFields(req.Parameters()),
	}

	for _, file := range req.Files() {
		if file.Path == "" {
			continue
		}
		f, err := os.Open(file.Path)
		if err != nil {
			body.close()
			return nil, fmt.Errorf("failed to open upload file: %w", err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			body.close()
			return nil, fmt.Errorf("failed to stat upload file: %w", err)
		}
		body.parts = append(body.parts, filePart{
			field:    file.FieldName(),
			filename: filepath.Base(file.Path),
			file:     f,
			size:     info.Size(),
		})
	}
	return body, nil
}

func (b *multipartBody) contentType() string {
	return "multipart/form-data; boundary=" + b.boundary
}

func (b *multipartBody) write(w io.Writer, copyPart func(io.Writer, filePart) error) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(b.boundary); err != nil {
		return err
	}
	for _, key := range sortedFieldNames(b.fields) {
		if err := mw.WriteField(key, b.fields[key]); err != nil {
			return err
		}
	}
	for _, part := range b.parts {
		pw, err := mw.CreateFormFile(part.field, part.filename)
		if err != nil {
			return err
		}
		if err := copyPart(pw, part); err != nil {
			return err
		}
	}
	return mw.Close()
}

// size is the exact encoded length, computed without reading the files
func (b *multipartBody) size() (int64, error) {
	var counter countingWriter
	err := b.write(&counter, func(_ io.Writer, part filePart) error {
		counter.n += part.size
		return nil
	})
	return counter.n, err
}

// stream encodes the body on a goroutine that only advances as the reader is drained.
// Closing the returned reader stops the goroutine and waits for it.
func (b *multipartBody) stream() io.ReadCloser {
	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(b.write(pw, func(w io.Writer, part filePart) error {
			_, err := io.Copy(w, part.file)
			return err
		}))
	}()
	return &pipeBody{PipeReader: pr, done: done}
}

func (b *multipartBody) close() {
	for _, part := range b.parts {
		part.file.Close()
	}
}

type pipeBody struct {
	*io.PipeReader
	done chan struct{}
}

func (p *pipeBody) Close() error {
	err := p.PipeReader.Close()
	<-p.done
	return err
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(b []byte) (int, error) {
	w.n += int64(len(b))
	return len(b), nil
}

func sortedFieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// progressTracker turns bytes the transport read from the body into strictly increasing fractions
type progressTracker struct {
	request Requester
	handler ProgressHandler

	mu    sync.Mutex
	total int64
	read  int64
	last  float64
}

func newProgressTracker(req Requester, handler ProgressHandler) *progressTracker {
	return &progressTracker{request: req, handler: handler}
}

func (p *progressTracker) grow(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total += n
}

func (p *progressTracker) wrap(r io.Reader) io.Reader {
	return &progressReader{reader: r, tracker: p}
}

func (p *progressTracker) advance(n int) {
	p.mu.Lock()
	p.read += int64(n)
	if p.total <= 0 {
		p.mu.Unlock()
		return
	}
	fraction := float64(p.read) / float64(p.total)
	p.mu.Unlock()
	// 1.0 is left to finish, which only runs once the exchange succeeded
	if fraction >= 1 {
		return
	}
	p.report(fraction)
}

func (p *progressTracker) finish() {
	p.report(1)
}

func (p *progressTracker) report(fraction float64) {
	if p.handler == nil {
		return
	}
	if fraction > 1 {
		fraction = 1
	}

	p.mu.Lock()
	if fraction <= p.last {
		p.mu.Unlock()
		return
	}
	p.last = fraction
	p.mu.Unlock()

	p.handler(p.request, fraction)
}

type progressReader struct {
	reader  io.Reader
	tracker *progressTracker
}

func (r *progressReader) Read(b []byte) (int, error) {
	n, err := r.reader.Read(b)
	if n > 0 {
		r.tracker.advance(n)
	}
	return n, err
}
