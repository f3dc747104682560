package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

type docRepoFake struct {
	mu        sync.Mutex
	docs      map[string]domain.Document
	statusLog []domain.DocumentStatus

	createErr error
	getErr    error
	updateErr error
	deleteErr error
}

func newDocRepoFake() *docRepoFake {
	return &docRepoFake{docs: make(map[string]domain.Document)}
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = *doc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	copyDoc := doc
	return &copyDoc, nil
}

func (f *docRepoFake) List(_ context.Context, status domain.DocumentStatus, limit, _ int) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Document, 0, len(f.docs))
	for _, doc := range f.docs {
		if status != "" && doc.Status != status {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, doc)
	}
	return out, nil
}

func (f *docRepoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update status", errors.New(id))
	}
	doc.Status = status
	doc.Error = errMessage
	f.docs[id] = doc
	f.statusLog = append(f.statusLog, status)
	return nil
}

func (f *docRepoFake) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", errors.New(id))
	}
	delete(f.docs, id)
	return nil
}

func (f *docRepoFake) statusOf(id string) domain.DocumentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id].Status
}

type fieldRepoFake struct {
	mu     sync.Mutex
	fields map[string]map[domain.FieldName]domain.ExtractedField

	replaceErr error
	upsertErr  error
	selectErr  error
	stats      []domain.FieldStats
}

func newFieldRepoFake() *fieldRepoFake {
	return &fieldRepoFake{fields: make(map[string]map[domain.FieldName]domain.ExtractedField)}
}

func (f *fieldRepoFake) ReplaceFields(_ context.Context, documentID string, fields []domain.ExtractedField) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[domain.FieldName]domain.ExtractedField, len(fields))
	for _, fl := range fields {
		set[fl.Name] = fl
	}
	f.fields[documentID] = set
	return nil
}

func (f *fieldRepoFake) ListByDocument(_ context.Context, documentID string) ([]domain.ExtractedField, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.fields[documentID]
	out := make([]domain.ExtractedField, 0, len(set))
	for _, name := range domain.Vocabulary() {
		if fl, ok := set[name]; ok {
			out = append(out, fl)
		}
	}
	return out, nil
}

func (f *fieldRepoFake) GetField(_ context.Context, documentID string, name domain.FieldName) (*domain.ExtractedField, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.fields[documentID][name]
	if !ok {
		return nil, nil
	}
	copyField := fl
	return &copyField, nil
}

func (f *fieldRepoFake) UpsertField(_ context.Context, documentID string, field domain.ExtractedField) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.fields[documentID]
	if !ok {
		set = make(map[domain.FieldName]domain.ExtractedField)
		f.fields[documentID] = set
	}
	set[field.Name] = field
	return nil
}

func (f *fieldRepoFake) SetSelected(_ context.Context, documentID string, name domain.FieldName, selected bool) error {
	if f.selectErr != nil {
		return f.selectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.fields[documentID][name]
	if !ok {
		return domain.WrapError(domain.ErrUnknownField, "set selected", errors.New(string(name)))
	}
	fl.Selected = selected
	f.fields[documentID][name] = fl
	return nil
}

func (f *fieldRepoFake) DeleteByDocument(_ context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fields, documentID)
	return nil
}

func (f *fieldRepoFake) Stats(context.Context) ([]domain.FieldStats, error) {
	return f.stats, nil
}

func (f *fieldRepoFake) field(documentID string, name domain.FieldName) (domain.ExtractedField, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.fields[documentID][name]
	return fl, ok
}

type artifactStoreFake struct {
	mu      sync.Mutex
	objects map[string][]byte

	putErr    error
	getErr    error
	deleteErr error
}

func newArtifactStoreFake() *artifactStoreFake {
	return &artifactStoreFake{objects: make(map[string][]byte)}
}

func (f *artifactStoreFake) Put(_ context.Context, key string, data io.Reader) (domain.StorageLocator, error) {
	if f.putErr != nil {
		return domain.StorageLocator{}, f.putErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return domain.StorageLocator{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = raw
	return domain.StorageLocator{Backend: domain.BackendLocal, Path: key}, nil
}

func (f *artifactStoreFake) Get(_ context.Context, locator domain.StorageLocator) (io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[locator.Path]
	if !ok {
		return nil, domain.WrapError(domain.ErrArtifactNotFound, "get artifact", errors.New(locator.Path))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *artifactStoreFake) Delete(_ context.Context, locator domain.StorageLocator) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, locator.Path)
	return nil
}

func (f *artifactStoreFake) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type loaderFake struct {
	pages []string
	err   error
}

func (f *loaderFake) Load(context.Context, []byte, string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

type extractorFake struct {
	candidates []domain.Candidate
	err        error
	status     domain.ExtractorStatus

	// When set, ExtractFields blocks until the channel is closed.
	block chan struct{}
}

func (f *extractorFake) ExtractFields(ctx context.Context, _ []string) ([]domain.Candidate, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func (f *extractorFake) Status() domain.ExtractorStatus {
	return f.status
}

type gateFake struct {
	mu       sync.Mutex
	acquired int
	released int
	err      error
}

func (f *gateFake) Acquire(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired++
	return nil
}

func (f *gateFake) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
}

type ledgerFake struct {
	mu       sync.Mutex
	appended []domain.Correction

	appendErr error
}

func (f *ledgerFake) Append(_ context.Context, correction *domain.Correction) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	correction.ID = int64(len(f.appended) + 1)
	f.appended = append(f.appended, *correction)
	return nil
}

func (f *ledgerFake) HistoryForField(_ context.Context, name domain.FieldName, limit, offset int) ([]domain.Correction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Correction, 0, len(f.appended))
	for _, c := range f.appended {
		if c.Field == name {
			out = append(out, c)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *ledgerFake) entries() []domain.Correction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Correction(nil), f.appended...)
}

type exportRepoFake struct {
	mu      sync.Mutex
	created []domain.Export

	createErr error
}

func (f *exportRepoFake) Create(_ context.Context, export *domain.Export) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *export)
	return nil
}

func (f *exportRepoFake) ListByDocument(_ context.Context, documentID string) ([]domain.Export, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Export, 0, len(f.created))
	for _, e := range f.created {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type queueFake struct {
	mu        sync.Mutex
	published []string

	publishErr error
}

func (f *queueFake) PublishReextract(_ context.Context, documentID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeReextract(context.Context, func(context.Context, string, time.Time) error) error {
	return errors.New("not implemented")
}
