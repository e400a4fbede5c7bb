package sitecontent_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/refenti-content/pkg/sitecontent"
	"github.com/tendant/refenti-content/pkg/sitecontent/repo/memory"
	memorystorage "github.com/tendant/refenti-content/pkg/sitecontent/storage/memory"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.FixedZone("EAT", 3*60*60))

func newService(t *testing.T, blobs sitecontent.BlobStore) sitecontent.Service {
	t.Helper()
	svc, err := sitecontent.New(
		sitecontent.WithRepository(memory.New()),
		sitecontent.WithBlobStore(blobs),
		sitecontent.WithPublicURL(testBaseURL, testBucket),
		sitecontent.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		sitecontent.WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return svc
}

func createTower(t *testing.T, svc sitecontent.Service) *sitecontent.Project {
	t.Helper()
	project, err := svc.CreateProject(context.Background(), &sitecontent.Project{
		Name:            "Test Tower",
		AssetClass:      sitecontent.AssetClassResidential,
		Location:        "Bole",
		Description:     "Residences",
		ProjectFeatures: []string{"Gym"},
		DetailSections: []sitecontent.DetailSection{
			{Title: "Lobby", Text: "Double height"},
			{Title: "Roof", Text: "Garden"},
		},
	})
	require.NoError(t, err)
	return project
}

func attach(t *testing.T, svc sitecontent.Service, kind sitecontent.AssetKind, id string, slot sitecontent.Slot, file sitecontent.File) string {
	t.Helper()
	url, err := svc.AttachAsset(context.Background(), sitecontent.AttachAssetRequest{
		Kind:     kind,
		EntityID: id,
		Slot:     slot,
		File:     file,
	})
	require.NoError(t, err)
	return url
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []sitecontent.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []sitecontent.Option{},
			expectError: true,
		},
		{
			name: "repository without blob store should fail",
			options: []sitecontent.Option{
				sitecontent.WithRepository(memory.New()),
			},
			expectError: true,
		},
		{
			name: "empty bucket should fail",
			options: []sitecontent.Option{
				sitecontent.WithRepository(memory.New()),
				sitecontent.WithBlobStore(memorystorage.New()),
				sitecontent.WithPublicURL(testBaseURL, ""),
			},
			expectError: true,
		},
		{
			name: "with repository and blob store should succeed",
			options: []sitecontent.Option{
				sitecontent.WithRepository(memory.New()),
				sitecontent.WithBlobStore(memorystorage.New()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := sitecontent.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
				assert.Equal(t, "refenti-media", svc.Assets().Bucket())
			}
		})
	}
}

func TestProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memorystorage.New())

	created := createTower(t, svc)
	assert.Equal(t, "test-tower", created.ID)

	got, err := svc.GetProject(ctx, "test-tower")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = svc.CreateProject(ctx, &sitecontent.Project{Name: "Test  Tower"})
	assert.ErrorIs(t, err, sitecontent.ErrAlreadyExists)
}

func TestCreateProject_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memorystorage.New())

	_, err := svc.CreateProject(ctx, &sitecontent.Project{AssetClass: sitecontent.AssetClassCommercial})
	var validationErr *sitecontent.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "name", validationErr.Field)

	_, err = svc.CreateProject(ctx, &sitecontent.Project{Name: "X", AssetClass: "Industrial"})
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "assetClass", validationErr.Field)

	created, err := svc.CreateProject(ctx, &sitecontent.Project{ID: "custom", Name: "Named Differently"})
	require.NoError(t, err)
	assert.Equal(t, "custom", created.ID)
	assert.NotNil(t, created.ProjectFeatures)
	assert.NotNil(t, created.DetailSections)

	projects, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestCreateProject_SlashInName(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memorystorage.New())

	east, err := svc.CreateProject(ctx, &sitecontent.Project{Name: "Bole / East"})
	require.NoError(t, err)
	assert.Equal(t, "bole-east", east.ID)

	bole, err := svc.CreateProject(ctx, &sitecontent.Project{Name: "Bole"})
	require.NoError(t, err)

	url := attach(t, svc, sitecontent.KindProjects, east.ID, sitecontent.SlotHero, jpegFile("hero.jpg"))
	assert.Contains(t, url, "/projects/bole-east/hero-")

	// one entity's prefix never covers another's objects
	assets, err := svc.ListAssets(ctx, sitecontent.KindProjects, bole.ID)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestCreate_RejectsIDWithSlash(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memorystorage.New())
	var validationErr *sitecontent.ValidationError

	_, err := svc.CreateProject(ctx, &sitecontent.Project{ID: "bole/east", Name: "Bole East"})
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "id", validationErr.Field)
	assert.ErrorIs(t, err, sitecontent.ErrInvalidInput)

	_, err = svc.CreateEvent(ctx, &sitecontent.EventItem{ID: "gala/2025", Title: "Gala"})
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "id", validationErr.Field)

	_, err = svc.CreateNews(ctx, &sitecontent.NewsItem{ID: "..", Title: "Launch"})
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "id", validationErr.Field)

	projects, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdateProject(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memorystorage.New())
	project := createTower(t, svc)

	project.Description = "Now with offices"
	project.AssetClass = sitecontent.AssetClassMixedUse
	updated, err := svc.UpdateProject(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, project, updated)

	got, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Now with offices", got.Description)

	_, err = svc.UpdateProject(ctx, &sitecontent.Project{ID: "missing", Name: "Missing"})
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)

	_, err = svc.UpdateProject(ctx, &sitecontent.Project{Name: "No id"})
	assert.ErrorIs(t, err, sitecontent.ErrInvalidInput)
}

func TestDeleteProject_RemovesOwnedAssets(t *testing.T) {
	ctx := context.Background()
	blobs := memorystorage.New()
	svc := newService(t, blobs)
	project := createTower(t, svc)

	attach(t, svc, sitecontent.KindProjects, project.ID, sitecontent.SlotHero, jpegFile("hero.jpg"))
	attach(t, svc, sitecontent.KindProjects, project.ID, sitecontent.SlotIntro, jpegFile("intro.jpg"))
	attach(t, svc, sitecontent.KindProjects, project.ID, sitecontent.DetailSlot(0), jpegFile("d0.jpg"))
	attach(t, svc, sitecontent.KindProjects, project.ID, sitecontent.DetailSlot(1), jpegFile("d1.jpg"))

	got, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, got.AssetURLs(), 4)
	assert.Equal(t, 4, blobs.Len())

	report, err := svc.DeleteProject(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, report.RecordDeleted)
	assert.Equal(t, 4, report.AssetsDeleted)
	assert.Empty(t, report.Warnings)

	remaining, err := svc.ListAssets(ctx, sitecontent.KindProjects, project.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.Zero(t, blobs.Len())

	_, err = svc.GetProject(ctx, project.ID)
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)
}

func TestDeleteProject_LeavesExternalAssets(t *testing.T) {
	ctx := context.Background()
	blobs := memorystorage.New()
	svc := newService(t, blobs)

	other := createTower(t, svc)
	shared := attach(t, svc, sitecontent.KindProjects, other.ID, sitecontent.SlotHero, jpegFile("hero.jpg"))

	project, err := svc.CreateProject(ctx, &sitecontent.Project{
		Name:  "Harbor",
		Image: "https://images.unsplash.com/photo-1?w=800",
	})
	require.NoError(t, err)

	report, err := svc.DeleteProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Zero(t, report.AssetsDeleted)

	_, ok := svc.Assets().ParsePublicURL(shared)
	assert.True(t, ok)
	assert.Equal(t, 1, blobs.Len())
}

func TestDeleteProject_StorageFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	blobs := &faultyBlobStore{Backend: memorystorage.New()}
	svc := newService(t, blobs)
	project := createTower(t, svc)
	attach(t, svc, sitecontent.KindProjects, project.ID, sitecontent.SlotHero, jpegFile("hero.jpg"))

	blobs.failDelete = true
	report, err := svc.DeleteProject(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, report.RecordDeleted)
	assert.Len(t, report.Warnings, 2)
	assert.Len(t, report.WarningMessages(), 2)

	_, err = svc.GetProject(ctx, project.ID)
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)
}

func TestDeleteProject_MissingRecordStillCleansStorage(t *testing.T) {
	ctx := context.Background()
	blobs := memorystorage.New()
	svc := newService(t, blobs)

	_, err := svc.UploadAsset(ctx, sitecontent.UploadAssetRequest{
		Kind:     sitecontent.KindProjects,
		EntityID: "ghost",
		Slot:     sitecontent.SlotHero,
		File:     jpegFile("hero.jpg"),
	})
	require.NoError(t, err)

	report, err := svc.DeleteProject(ctx, "ghost")
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)
	require.NotNil(t, report)
	assert.False(t, report.RecordDeleted)
	assert.Equal(t, 1, report.AssetsDeleted)
	assert.Zero(t, blobs.Len())
}

func TestAttachAsset_ReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	blobs := memorystorage.New()
	svc := newService(t, blobs)
	project := createTower(t, svc)

	first := attach(t, svc, sitecontent.KindProjects, project.ID, sitecontent.SlotBrochure, pdfFile("b1.pdf"))
	second := attach(t, svc, sitecontent.KindProjects, project.ID, sitecontent.SlotBrochure, pdfFile("b2.pdf"))
	assert.NotEqual(t, first, second)

	got, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got.BrochureURL)

	assets, err := svc.ListAssets(ctx, sitecontent.KindProjects, project.ID)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, second, assets[0].URL)
}

func TestAttachAsset_RejectsBeforeUpload(t *testing.T) {
	ctx := context.Background()
	blobs := memorystorage.New()
	svc := newService(t, blobs)
	project := createTower(t, svc)

	tests := []struct {
		name string
		req  sitecontent.AttachAssetRequest
	}{
		{"image into brochure", sitecontent.AttachAssetRequest{Kind: sitecontent.KindProjects, EntityID: project.ID, Slot: sitecontent.SlotBrochure, File: jpegFile("a.jpg")}},
		{"pdf into hero", sitecontent.AttachAssetRequest{Kind: sitecontent.KindProjects, EntityID: project.ID, Slot: sitecontent.SlotHero, File: pdfFile("a.pdf")}},
		{"slot of another kind", sitecontent.AttachAssetRequest{Kind: sitecontent.KindProjects, EntityID: project.ID, Slot: sitecontent.SlotImage, File: jpegFile("a.jpg")}},
		{"detail out of range", sitecontent.AttachAssetRequest{Kind: sitecontent.KindProjects, EntityID: project.ID, Slot: sitecontent.DetailSlot(7), File: jpegFile("a.jpg")}},
		{"unknown kind", sitecontent.AttachAssetRequest{Kind: "inquiries", EntityID: project.ID, Slot: sitecontent.SlotImage, File: jpegFile("a.jpg")}},
		{"slash in id", sitecontent.AttachAssetRequest{Kind: sitecontent.KindEvents, EntityID: "a/b", Slot: sitecontent.SlotImage, File: jpegFile("a.jpg")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AttachAsset(ctx, tt.req)
			assert.ErrorIs(t, err, sitecontent.ErrInvalidInput)
		})
	}

	assert.Zero(t, blobs.Len())
	got, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project, got)
}

func TestAttachAsset_MissingRecordUploadsNothing(t *testing.T) {
	blobs := memorystorage.New()
	svc := newService(t, blobs)

	_, err := svc.AttachAsset(context.Background(), sitecontent.AttachAssetRequest{
		Kind: sitecontent.KindNews, EntityID: "none", Slot: sitecontent.SlotImage, File: jpegFile("a.jpg"),
	})
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)
	assert.Zero(t, blobs.Len())
}

func TestAttachAsset_FailedUploadLeavesField(t *testing.T) {
	ctx := context.Background()
	blobs := &faultyBlobStore{Backend: memorystorage.New()}
	svc := newService(t, blobs)

	event, err := svc.CreateEvent(ctx, &sitecontent.EventItem{Title: "Gala", Image: "https://images.example.com/old.jpg"})
	require.NoError(t, err)

	blobs.failUpload = true
	_, err = svc.AttachAsset(ctx, sitecontent.AttachAssetRequest{
		Kind: sitecontent.KindEvents, EntityID: event.ID, Slot: sitecontent.SlotImage, File: jpegFile("a.jpg"),
	})
	assert.ErrorIs(t, err, errInjected)

	got, err := svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://images.example.com/old.jpg", got.Image)
}

func TestRemoveAsset(t *testing.T) {
	ctx := context.Background()
	blobs := &faultyBlobStore{Backend: memorystorage.New()}
	svc := newService(t, blobs)

	item, err := svc.CreateNews(ctx, &sitecontent.NewsItem{Title: "Ground Breaking", Excerpt: "Work begins"})
	require.NoError(t, err)
	url := attach(t, svc, sitecontent.KindNews, item.ID, sitecontent.SlotImage, jpegFile("a.jpg"))

	blobs.failDelete = true
	err = svc.RemoveAsset(ctx, sitecontent.KindNews, item.ID, sitecontent.SlotImage)
	assert.ErrorIs(t, err, errInjected)
	got, err := svc.GetNews(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, url, got.Image)

	blobs.failDelete = false
	require.NoError(t, svc.RemoveAsset(ctx, sitecontent.KindNews, item.ID, sitecontent.SlotImage))
	got, err = svc.GetNews(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Image)
	assert.Zero(t, blobs.Len())

	// removing an empty slot is a no-op
	require.NoError(t, svc.RemoveAsset(ctx, sitecontent.KindNews, item.ID, sitecontent.SlotImage))
	assert.ErrorIs(t, svc.RemoveAsset(ctx, sitecontent.KindNews, item.ID, sitecontent.SlotHero), sitecontent.ErrInvalidInput)
}

func TestToggleEventFeatured(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memorystorage.New())

	original, err := svc.CreateEvent(ctx, &sitecontent.EventItem{
		Title:    "Launch Gala",
		Date:     "March 12, 2025",
		Location: "Sheraton Addis",
		Details:  "Black tie",
	})
	require.NoError(t, err)
	assert.Equal(t, "launch-gala", original.ID)

	once, err := svc.ToggleEventFeatured(ctx, original.ID)
	require.NoError(t, err)
	assert.True(t, once.IsFeatured)

	twice, err := svc.ToggleEventFeatured(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, original, twice)

	set, err := svc.SetEventFeatured(ctx, original.ID, true)
	require.NoError(t, err)
	assert.True(t, set.IsFeatured)

	_, err = svc.ToggleEventFeatured(ctx, "missing")
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)
}

func TestCreateEvent_BlankSlugGetsUUID(t *testing.T) {
	svc := newService(t, memorystorage.New())

	event, err := svc.CreateEvent(context.Background(), &sitecontent.EventItem{Title: "\t"})
	require.NoError(t, err)
	_, err = uuid.Parse(event.ID)
	assert.NoError(t, err)
}

func TestDeleteEvent_FlatAssets(t *testing.T) {
	ctx := context.Background()
	blobs := memorystorage.New()
	svc := newService(t, blobs)

	gala, err := svc.CreateEvent(ctx, &sitecontent.EventItem{Title: "Gala"})
	require.NoError(t, err)
	night, err := svc.CreateEvent(ctx, &sitecontent.EventItem{Title: "Gala Night"})
	require.NoError(t, err)

	attach(t, svc, sitecontent.KindEvents, gala.ID, sitecontent.SlotImage, jpegFile("a.jpg"))
	attach(t, svc, sitecontent.KindEvents, night.ID, sitecontent.SlotImage, jpegFile("b.jpg"))

	report, err := svc.DeleteEvent(ctx, gala.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AssetsDeleted)

	remaining, err := svc.ListAssets(ctx, sitecontent.KindEvents, night.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestNewsCRUD(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memorystorage.New())

	item, err := svc.CreateNews(ctx, &sitecontent.NewsItem{Category: "Press", Title: "Topping Out", Excerpt: "Done"})
	require.NoError(t, err)
	assert.Equal(t, "topping-out", item.ID)

	item.Content = "Long form"
	_, err = svc.UpdateNews(ctx, item)
	require.NoError(t, err)

	got, err := svc.GetNews(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Long form", got.Body())

	_, err = svc.CreateNews(ctx, &sitecontent.NewsItem{Category: "Press"})
	assert.ErrorIs(t, err, sitecontent.ErrInvalidInput)

	_, err = svc.DeleteNews(ctx, item.ID)
	require.NoError(t, err)
	list, err := svc.ListNews(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitInquiry(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memorystorage.New())

	inquiry, err := svc.SubmitInquiry(ctx, sitecontent.SubmitInquiryRequest{
		Name:    "Ada",
		Email:   "a@x.io",
		Type:    "Sales",
		Message: "Hi",
	})
	require.NoError(t, err)
	_, err = uuid.Parse(inquiry.ID)
	assert.NoError(t, err)
	assert.Equal(t, fixedNow.UTC(), inquiry.Date)
	assert.Equal(t, time.UTC, inquiry.Date.Location())

	list, err := svc.ListInquiries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ada", list[0].Name)
	assert.Equal(t, "a@x.io", list[0].Email)
	assert.Equal(t, "Sales", list[0].Type)
	assert.Equal(t, "Hi", list[0].Message)

	got, err := svc.GetInquiry(ctx, inquiry.ID)
	require.NoError(t, err)
	assert.True(t, inquiry.Date.Equal(got.Date))

	require.NoError(t, svc.DeleteInquiry(ctx, inquiry.ID))
	assert.ErrorIs(t, svc.DeleteInquiry(ctx, inquiry.ID), sitecontent.ErrNotFound)
}

func TestSubmitInquiry_Validation(t *testing.T) {
	svc := newService(t, memorystorage.New())

	_, err := svc.SubmitInquiry(context.Background(), sitecontent.SubmitInquiryRequest{
		Name:    "Ada",
		Email:   "not-an-email",
		Message: "Hi",
	})
	var validationErr *sitecontent.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "email", validationErr.Field)

	list, err := svc.ListInquiries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUploadAsset_ReturnsURLWithoutRecord(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memorystorage.New())

	url, err := svc.UploadAsset(ctx, sitecontent.UploadAssetRequest{
		Kind:     sitecontent.KindProjects,
		EntityID: "future-project",
		Slot:     sitecontent.DetailSlot(0),
		File:     sitecontent.File{FileInfo: sitecontent.FileInfo{Name: "d.png", MimeType: "image/png", Size: 3}, Body: bytes.NewReader([]byte("png"))},
	})
	require.NoError(t, err)
	assert.Contains(t, url, "/storage/v1/object/public/refenti-media/projects/future-project/detail-0-")

	n, err := svc.PurgeAssets(ctx, sitecontent.KindProjects, "future-project")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
