package sitecontent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	baseURL    string
	bucket     string
	logger     *slog.Logger
	now        func() time.Time

	assets *AssetStore
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithPublicURL sets the storage base URL and bucket used in public asset URLs
func WithPublicURL(baseURL, bucket string) Option {
	return func(s *service) {
		s.baseURL = baseURL
		s.bucket = bucket
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithClock sets the time source for upload keys and inquiry dates
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		bucket: "refenti-media",
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	s.assets = NewAssetStore(s.blobStore, s.baseURL, s.bucket)
	s.assets.now = s.now

	return s, nil
}

func (s *service) Assets() *AssetStore {
	return s.assets
}

// Project operations

func (s *service) ListProjects(ctx context.Context) ([]*Project, error) {
	return s.repository.Projects().List(ctx)
}

func (s *service) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.repository.Projects().Get(ctx, id)
}

func (s *service) CreateProject(ctx context.Context, project *Project) (*Project, error) {
	p := *project
	if err := asValidationError(p.Validate()); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = Slugify(p.Name)
	}
	if p.ID == "" {
		return nil, &ValidationError{Field: "name", Message: "cannot be blank"}
	}
	if err := checkRecordID(p.ID); err != nil {
		return nil, err
	}
	normalizeProject(&p)

	if err := s.repository.Projects().Create(ctx, &p); err != nil {
		return nil, &RecordError{Kind: KindProjects, ID: p.ID, Op: "create", Err: err}
	}
	return &p, nil
}

func (s *service) UpdateProject(ctx context.Context, project *Project) (*Project, error) {
	p := *project
	if p.ID == "" {
		return nil, &ValidationError{Field: "id", Message: "cannot be blank"}
	}
	if err := asValidationError(p.Validate()); err != nil {
		return nil, err
	}
	normalizeProject(&p)

	if err := s.repository.Projects().Update(ctx, &p); err != nil {
		return nil, &RecordError{Kind: KindProjects, ID: p.ID, Op: "update", Err: err}
	}
	return &p, nil
}

func (s *service) DeleteProject(ctx context.Context, id string) (*DeleteReport, error) {
	return deleteWithAssets(ctx, s, KindProjects, id, s.repository.Projects().Get, s.repository.Projects().Delete, (*Project).AssetURLs)
}

func normalizeProject(p *Project) {
	if p.ProjectFeatures == nil {
		p.ProjectFeatures = []string{}
	}
	if p.DetailSections == nil {
		p.DetailSections = []DetailSection{}
	}
}

// Event operations

func (s *service) ListEvents(ctx context.Context) ([]*EventItem, error) {
	return s.repository.Events().List(ctx)
}

func (s *service) GetEvent(ctx context.Context, id string) (*EventItem, error) {
	return s.repository.Events().Get(ctx, id)
}

func (s *service) CreateEvent(ctx context.Context, event *EventItem) (*EventItem, error) {
	e := *event
	if err := asValidationError(e.Validate()); err != nil {
		return nil, err
	}
	if e.ID == "" {
		e.ID = slugOrUUID(e.Title)
	}
	if err := checkRecordID(e.ID); err != nil {
		return nil, err
	}

	if err := s.repository.Events().Create(ctx, &e); err != nil {
		return nil, &RecordError{Kind: KindEvents, ID: e.ID, Op: "create", Err: err}
	}
	return &e, nil
}

func (s *service) UpdateEvent(ctx context.Context, event *EventItem) (*EventItem, error) {
	e := *event
	if e.ID == "" {
		return nil, &ValidationError{Field: "id", Message: "cannot be blank"}
	}
	if err := asValidationError(e.Validate()); err != nil {
		return nil, err
	}

	if err := s.repository.Events().Update(ctx, &e); err != nil {
		return nil, &RecordError{Kind: KindEvents, ID: e.ID, Op: "update", Err: err}
	}
	return &e, nil
}

func (s *service) DeleteEvent(ctx context.Context, id string) (*DeleteReport, error) {
	return deleteWithAssets(ctx, s, KindEvents, id, s.repository.Events().Get, s.repository.Events().Delete, (*EventItem).AssetURLs)
}

func (s *service) SetEventFeatured(ctx context.Context, id string, featured bool) (*EventItem, error) {
	event, err := s.repository.Events().SetFeatured(ctx, id, featured)
	if err != nil {
		return nil, &RecordError{Kind: KindEvents, ID: id, Op: "set_featured", Err: err}
	}
	return event, nil
}

func (s *service) ToggleEventFeatured(ctx context.Context, id string) (*EventItem, error) {
	event, err := s.repository.Events().Get(ctx, id)
	if err != nil {
		return nil, &RecordError{Kind: KindEvents, ID: id, Op: "toggle_featured", Err: err}
	}
	return s.SetEventFeatured(ctx, id, !event.IsFeatured)
}

// News operations

func (s *service) ListNews(ctx context.Context) ([]*NewsItem, error) {
	return s.repository.News().List(ctx)
}

func (s *service) GetNews(ctx context.Context, id string) (*NewsItem, error) {
	return s.repository.News().Get(ctx, id)
}

func (s *service) CreateNews(ctx context.Context, item *NewsItem) (*NewsItem, error) {
	n := *item
	if err := asValidationError(n.Validate()); err != nil {
		return nil, err
	}
	if n.ID == "" {
		n.ID = slugOrUUID(n.Title)
	}
	if err := checkRecordID(n.ID); err != nil {
		return nil, err
	}

	if err := s.repository.News().Create(ctx, &n); err != nil {
		return nil, &RecordError{Kind: KindNews, ID: n.ID, Op: "create", Err: err}
	}
	return &n, nil
}

func (s *service) UpdateNews(ctx context.Context, item *NewsItem) (*NewsItem, error) {
	n := *item
	if n.ID == "" {
		return nil, &ValidationError{Field: "id", Message: "cannot be blank"}
	}
	if err := asValidationError(n.Validate()); err != nil {
		return nil, err
	}

	if err := s.repository.News().Update(ctx, &n); err != nil {
		return nil, &RecordError{Kind: KindNews, ID: n.ID, Op: "update", Err: err}
	}
	return &n, nil
}

func (s *service) DeleteNews(ctx context.Context, id string) (*DeleteReport, error) {
	return deleteWithAssets(ctx, s, KindNews, id, s.repository.News().Get, s.repository.News().Delete, (*NewsItem).AssetURLs)
}

// Inquiry operations

func (s *service) SubmitInquiry(ctx context.Context, req SubmitInquiryRequest) (*Inquiry, error) {
	if err := asValidationError(req.Validate()); err != nil {
		return nil, err
	}

	inquiry := &Inquiry{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Email:   req.Email,
		Type:    req.Type,
		Message: req.Message,
		Date:    s.now().UTC(),
	}
	if err := s.repository.Inquiries().Create(ctx, inquiry); err != nil {
		return nil, fmt.Errorf("failed to store inquiry: %w", err)
	}

	s.logger.Info("Inquiry submitted", "inquiry_id", inquiry.ID, "type", inquiry.Type)
	return inquiry, nil
}

func (s *service) ListInquiries(ctx context.Context) ([]*Inquiry, error) {
	return s.repository.Inquiries().List(ctx)
}

func (s *service) GetInquiry(ctx context.Context, id string) (*Inquiry, error) {
	return s.repository.Inquiries().Get(ctx, id)
}

func (s *service) DeleteInquiry(ctx context.Context, id string) error {
	return s.repository.Inquiries().Delete(ctx, id)
}

// Asset operations

func (s *service) UploadAsset(ctx context.Context, req UploadAssetRequest) (string, error) {
	if err := checkUpload(req.Kind, req.EntityID, req.Slot, req.File); err != nil {
		return "", err
	}
	return s.assets.Upload(ctx, req.Kind, req.EntityID, req.Slot, req.File)
}

func (s *service) AttachAsset(ctx context.Context, req AttachAssetRequest) (string, error) {
	if err := checkUpload(req.Kind, req.EntityID, req.Slot, req.File); err != nil {
		return "", err
	}

	switch req.Kind {
	case KindProjects:
		return attachAsset[Project](ctx, s, s.repository.Projects(), req, projectField)
	case KindEvents:
		return attachAsset[EventItem](ctx, s, s.repository.Events(), req, func(e *EventItem, _ Slot) (*string, error) { return &e.Image, nil })
	case KindNews:
		return attachAsset[NewsItem](ctx, s, s.repository.News(), req, func(n *NewsItem, _ Slot) (*string, error) { return &n.Image, nil })
	}
	return "", &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown asset kind %q", req.Kind)}
}

func (s *service) RemoveAsset(ctx context.Context, kind AssetKind, id string, slot Slot) error {
	if !slot.ValidFor(kind) {
		return &ValidationError{Field: "slot", Message: fmt.Sprintf("%s has no slot %q", kind.Singular(), slot)}
	}

	switch kind {
	case KindProjects:
		return removeAsset[Project](ctx, s, s.repository.Projects(), kind, id, slot, projectField)
	case KindEvents:
		return removeAsset[EventItem](ctx, s, s.repository.Events(), kind, id, slot, func(e *EventItem, _ Slot) (*string, error) { return &e.Image, nil })
	case KindNews:
		return removeAsset[NewsItem](ctx, s, s.repository.News(), kind, id, slot, func(n *NewsItem, _ Slot) (*string, error) { return &n.Image, nil })
	}
	return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown asset kind %q", kind)}
}

func (s *service) ListAssets(ctx context.Context, kind AssetKind, id string) ([]AssetDescriptor, error) {
	return s.assets.ListForEntity(ctx, kind, id)
}

func (s *service) PurgeAssets(ctx context.Context, kind AssetKind, id string) (int, error) {
	return s.assets.DeleteAll(ctx, kind, id)
}

func checkUpload(kind AssetKind, id string, slot Slot, file File) error {
	if _, err := ParseAssetKind(string(kind)); err != nil {
		return err
	}
	if err := checkRecordID(id); err != nil {
		return err
	}
	if !slot.ValidFor(kind) {
		return &ValidationError{Field: "slot", Message: fmt.Sprintf("%s has no slot %q", kind.Singular(), slot)}
	}
	if file.Body == nil {
		return &ValidationError{Field: "file", Message: "file is required"}
	}
	return ValidatorFor(slot)(file.FileInfo).Err("file")
}

// fieldFunc points at the record field a slot fills.
type fieldFunc[T any] func(record *T, slot Slot) (*string, error)

func projectField(p *Project, slot Slot) (*string, error) {
	switch slot {
	case SlotHero:
		return &p.Image, nil
	case SlotIntro:
		return &p.IntroImage, nil
	case SlotBrochure:
		return &p.BrochureURL, nil
	}
	if i, ok := slot.DetailIndex(); ok {
		if i >= len(p.DetailSections) {
			return nil, &ValidationError{Field: "slot", Message: fmt.Sprintf("project %s has no detail section %d", p.ID, i)}
		}
		return &p.DetailSections[i].Image, nil
	}
	return nil, ErrUnknownSlot
}

// attachAsset uploads into a record field. The new URL is saved before the
// previous asset is deleted, so a failed save never leaves the record
// pointing at a removed object.
func attachAsset[T any](ctx context.Context, s *service, store RecordStore[T], req AttachAssetRequest, field fieldFunc[T]) (string, error) {
	record, err := store.Get(ctx, req.EntityID)
	if err != nil {
		return "", &RecordError{Kind: req.Kind, ID: req.EntityID, Op: "attach_asset", Err: err}
	}
	target, err := field(record, req.Slot)
	if err != nil {
		return "", err
	}

	newURL, err := s.assets.Upload(ctx, req.Kind, req.EntityID, req.Slot, req.File)
	if err != nil {
		return "", err
	}

	previous := *target
	*target = newURL
	if err := store.Update(ctx, record); err != nil {
		if _, cleanupErr := s.assets.DeleteByURL(ctx, newURL); cleanupErr != nil {
			s.logger.Warn("Failed to remove unsaved upload", "url", newURL, "error", cleanupErr)
		}
		return "", &RecordError{Kind: req.Kind, ID: req.EntityID, Op: "attach_asset", Err: err}
	}

	if previous != "" && previous != newURL {
		if _, err := s.assets.DeleteByURL(ctx, previous); err != nil {
			s.logger.Warn("Failed to delete replaced asset", "kind", req.Kind, "id", req.EntityID, "url", previous, "error", err)
		}
	}
	return newURL, nil
}

// removeAsset deletes the stored object before clearing the field. If the
// delete fails the record keeps its URL.
func removeAsset[T any](ctx context.Context, s *service, store RecordStore[T], kind AssetKind, id string, slot Slot, field fieldFunc[T]) error {
	record, err := store.Get(ctx, id)
	if err != nil {
		return &RecordError{Kind: kind, ID: id, Op: "remove_asset", Err: err}
	}
	target, err := field(record, slot)
	if err != nil {
		return err
	}
	if *target == "" {
		return nil
	}

	if _, err := s.assets.DeleteByURL(ctx, *target); err != nil {
		return err
	}

	*target = ""
	if err := store.Update(ctx, record); err != nil {
		return &RecordError{Kind: kind, ID: id, Op: "remove_asset", Err: err}
	}
	return nil
}

// deleteWithAssets removes the record and every asset it owns. Each step is
// attempted regardless of the others: asset failures become warnings on the
// report, a record failure is returned together with them.
func deleteWithAssets[T any](
	ctx context.Context,
	s *service,
	kind AssetKind,
	id string,
	get func(context.Context, string) (*T, error),
	del func(context.Context, string) error,
	owned func(*T) []string,
) (*DeleteReport, error) {
	report := &DeleteReport{Kind: kind, ID: id}

	var urls []string
	record, err := get(ctx, id)
	switch {
	case err == nil:
		urls = owned(record)
	case !errors.Is(err, ErrNotFound):
		report.Warnings = append(report.Warnings, fmt.Errorf("load %s %s for asset cleanup: %w", kind.Singular(), id, err))
	}

	recordErr := del(ctx, id)
	report.RecordDeleted = recordErr == nil

	n, err := s.assets.DeleteAll(ctx, kind, id)
	report.AssetsDeleted += n
	if err != nil {
		report.Warnings = append(report.Warnings, err)
	}

	for _, u := range urls {
		deleted, err := s.assets.DeleteByURL(ctx, u)
		if err != nil {
			report.Warnings = append(report.Warnings, err)
			continue
		}
		if deleted {
			report.AssetsDeleted++
		}
	}

	for _, w := range report.Warnings {
		s.logger.Warn("Asset cleanup incomplete", "kind", kind, "id", id, "error", w)
	}

	if recordErr != nil {
		return report, errors.Join(append([]error{&RecordError{Kind: kind, ID: id, Op: "delete", Err: recordErr}}, report.Warnings...)...)
	}

	s.logger.Info("Record deleted", "kind", kind, "id", id, "assets_deleted", report.AssetsDeleted)
	return report, nil
}
