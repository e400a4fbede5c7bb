// Package repotest is a conformance suite shared by every
// sitecontent.Repository backend.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

// RunSuite exercises repo, which must start empty.
func RunSuite(t *testing.T, repo sitecontent.Repository) {
	t.Run("Projects", func(t *testing.T) { testProjects(t, repo) })
	t.Run("Events", func(t *testing.T) { testEvents(t, repo) })
	t.Run("News", func(t *testing.T) { testNews(t, repo) })
	t.Run("Inquiries", func(t *testing.T) { testInquiries(t, repo) })
}

func sampleProject(id string) *sitecontent.Project {
	return &sitecontent.Project{
		ID:              id,
		Name:            "Test Tower",
		AssetClass:      sitecontent.AssetClassMixedUse,
		Location:        "Addis Ababa",
		Image:           "https://cdn.example.com/storage/v1/object/public/refenti-media/projects/" + id + "/hero-1.jpg",
		Description:     "Twin towers on Bole Road",
		IntroTitle:      "A new skyline",
		ProjectFeatures: []string{"Sky lobby", "Rooftop garden"},
		DetailSections: []sitecontent.DetailSection{
			{Title: "Living", Text: "Residences", Image: ""},
			{Title: "Work", Text: "Offices", Image: "https://cdn.example.com/x.jpg"},
		},
	}
}

func testProjects(t *testing.T, repo sitecontent.Repository) {
	ctx := context.Background()
	store := repo.Projects()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	first := sampleProject("test-tower")
	second := sampleProject("harbor-view")
	second.Name = "Harbor View"
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	err = store.Create(ctx, sampleProject("test-tower"))
	assert.ErrorIs(t, err, sitecontent.ErrAlreadyExists)

	got, err := store.Get(ctx, "test-tower")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "test-tower", list[0].ID)
	assert.Equal(t, "harbor-view", list[1].ID)

	// mutating the returned value must not leak into the store
	got.ProjectFeatures[0] = "changed"
	again, err := store.Get(ctx, "test-tower")
	require.NoError(t, err)
	assert.Equal(t, "Sky lobby", again.ProjectFeatures[0])

	first.Description = "Updated"
	first.BrochureURL = "https://cdn.example.com/b.pdf"
	require.NoError(t, store.Update(ctx, first))
	got, err = store.Get(ctx, "test-tower")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	// update keeps insertion order
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test-tower", list[0].ID)

	assert.ErrorIs(t, store.Update(ctx, sampleProject("missing")), sitecontent.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "test-tower"))
	_, err = store.Get(ctx, "test-tower")
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "test-tower"), sitecontent.ErrNotFound)

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "harbor-view", list[0].ID)
}

func testEvents(t *testing.T, repo sitecontent.Repository) {
	ctx := context.Background()
	store := repo.Events()

	event := &sitecontent.EventItem{
		ID:       "launch-gala",
		Title:    "Launch Gala",
		Date:     "March 12, 2025",
		Location: "Sheraton",
		Image:    "",
		Details:  "Black tie",
	}
	require.NoError(t, store.Create(ctx, event))

	updated, err := store.SetFeatured(ctx, "launch-gala", true)
	require.NoError(t, err)
	assert.True(t, updated.IsFeatured)
	assert.Equal(t, "Black tie", updated.Details)

	got, err := store.Get(ctx, "launch-gala")
	require.NoError(t, err)
	assert.True(t, got.IsFeatured)
	assert.Equal(t, event.Title, got.Title)

	updated, err = store.SetFeatured(ctx, "launch-gala", false)
	require.NoError(t, err)
	assert.Equal(t, event, updated)

	_, err = store.SetFeatured(ctx, "missing", true)
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "launch-gala"))
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testNews(t *testing.T, repo sitecontent.Repository) {
	ctx := context.Background()
	store := repo.News()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Create(ctx, &sitecontent.NewsItem{
			ID:       id,
			Category: "Press",
			Title:    id,
			Date:     "2025-01-01",
			Excerpt:  "short",
		}))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "short", list[0].Body())
}

func testInquiries(t *testing.T, repo sitecontent.Repository) {
	ctx := context.Background()
	store := repo.Inquiries()

	inquiry := &sitecontent.Inquiry{
		ID:      "5b4f2f0e-8a39-4a3c-9d2e-3f0c1b7b2a11",
		Name:    "Ada",
		Email:   "a@x.io",
		Type:    "Sales",
		Message: "Hi",
		Date:    time.Date(2025, 3, 1, 10, 30, 0, 123456000, time.UTC),
	}
	require.NoError(t, store.Create(ctx, inquiry))
	assert.ErrorIs(t, store.Create(ctx, inquiry), sitecontent.ErrAlreadyExists)

	got, err := store.Get(ctx, inquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, inquiry.Name, got.Name)
	assert.True(t, inquiry.Date.Equal(got.Date))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, store.Delete(ctx, inquiry.ID))
	_, err = store.Get(ctx, inquiry.ID)
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)
}
