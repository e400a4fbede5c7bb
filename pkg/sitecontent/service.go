package sitecontent

import "context"

// Service defines the main interface of the content layer. Every method
// blocks until the backing stores answer; nothing is retried.
type Service interface {
	// Project operations
	ListProjects(ctx context.Context) ([]*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	CreateProject(ctx context.Context, project *Project) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) (*Project, error)
	DeleteProject(ctx context.Context, id string) (*DeleteReport, error)

	// Event operations
	ListEvents(ctx context.Context) ([]*EventItem, error)
	GetEvent(ctx context.Context, id string) (*EventItem, error)
	CreateEvent(ctx context.Context, event *EventItem) (*EventItem, error)
	UpdateEvent(ctx context.Context, event *EventItem) (*EventItem, error)
	DeleteEvent(ctx context.Context, id string) (*DeleteReport, error)
	SetEventFeatured(ctx context.Context, id string, featured bool) (*EventItem, error)
	ToggleEventFeatured(ctx context.Context, id string) (*EventItem, error)

	// News operations
	ListNews(ctx context.Context) ([]*NewsItem, error)
	GetNews(ctx context.Context, id string) (*NewsItem, error)
	CreateNews(ctx context.Context, item *NewsItem) (*NewsItem, error)
	UpdateNews(ctx context.Context, item *NewsItem) (*NewsItem, error)
	DeleteNews(ctx context.Context, id string) (*DeleteReport, error)

	// Inquiry operations
	SubmitInquiry(ctx context.Context, req SubmitInquiryRequest) (*Inquiry, error)
	ListInquiries(ctx context.Context) ([]*Inquiry, error)
	GetInquiry(ctx context.Context, id string) (*Inquiry, error)
	DeleteInquiry(ctx context.Context, id string) error

	// Asset operations
	UploadAsset(ctx context.Context, req UploadAssetRequest) (string, error)
	AttachAsset(ctx context.Context, req AttachAssetRequest) (string, error)
	RemoveAsset(ctx context.Context, kind AssetKind, id string, slot Slot) error
	ListAssets(ctx context.Context, kind AssetKind, id string) ([]AssetDescriptor, error)
	PurgeAssets(ctx context.Context, kind AssetKind, id string) (int, error)
	Assets() *AssetStore
}
