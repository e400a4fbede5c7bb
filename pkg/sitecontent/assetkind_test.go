package sitecontent_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

func TestParseAssetKind(t *testing.T) {
	for _, s := range []string{"projects", "events", "news", "Projects"} {
		_, err := sitecontent.ParseAssetKind(s)
		assert.NoError(t, err, s)
	}

	_, err := sitecontent.ParseAssetKind("inquiries")
	assert.ErrorIs(t, err, sitecontent.ErrInvalidInput)
}

func TestObjectKey(t *testing.T) {
	at := time.UnixMilli(1700000000000)

	assert.Equal(t, "projects/bole/hero-1700000000000.jpg", sitecontent.KindProjects.ObjectKey("bole", sitecontent.SlotHero, "jpg", at))
	assert.Equal(t, "projects/bole/detail-2-1700000000000.png", sitecontent.KindProjects.ObjectKey("bole", sitecontent.DetailSlot(2), "png", at))
	assert.Equal(t, "events/gala-1700000000000.webp", sitecontent.KindEvents.ObjectKey("gala", sitecontent.SlotImage, "webp", at))
	assert.Equal(t, "news/launch-1700000000000.jpg", sitecontent.KindNews.ObjectKey("launch", sitecontent.SlotImage, "jpg", at))
}

func TestOwns(t *testing.T) {
	assert.True(t, sitecontent.KindProjects.Owns("bole", "projects/bole/hero-1.jpg"))
	assert.False(t, sitecontent.KindProjects.Owns("bole", "projects/bole-east/hero-1.jpg"))
	assert.False(t, sitecontent.KindProjects.Owns("bole", "projects/bole/"))

	assert.True(t, sitecontent.KindEvents.Owns("bole", "events/bole-1700000000000.jpg"))
	assert.False(t, sitecontent.KindEvents.Owns("bole", "events/bole-east-1700000000000.jpg"))
	assert.False(t, sitecontent.KindEvents.Owns("bole", "events/bole-1.tar.gz"))
	assert.False(t, sitecontent.KindNews.Owns("bole", "events/bole-1.jpg"))
}

func TestSlots(t *testing.T) {
	i, ok := sitecontent.DetailSlot(3).DetailIndex()
	require.True(t, ok)
	assert.Equal(t, 3, i)

	_, ok = sitecontent.Slot("detail-x").DetailIndex()
	assert.False(t, ok)
	_, ok = sitecontent.Slot("detail--1").DetailIndex()
	assert.False(t, ok)

	assert.True(t, sitecontent.SlotBrochure.ValidFor(sitecontent.KindProjects))
	assert.True(t, sitecontent.DetailSlot(0).ValidFor(sitecontent.KindProjects))
	assert.False(t, sitecontent.SlotImage.ValidFor(sitecontent.KindProjects))
	assert.True(t, sitecontent.SlotImage.ValidFor(sitecontent.KindEvents))
	assert.False(t, sitecontent.SlotHero.ValidFor(sitecontent.KindNews))
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		file sitecontent.FileInfo
		want string
	}{
		{sitecontent.FileInfo{Name: "Photo.JPG", MimeType: "image/jpeg"}, "jpg"},
		{sitecontent.FileInfo{Name: "scan.jpeg", MimeType: "image/jpeg"}, "jpeg"},
		{sitecontent.FileInfo{Name: "brochure", MimeType: "application/pdf"}, "pdf"},
		{sitecontent.FileInfo{Name: "blob", MimeType: "image/webp"}, "webp"},
		{sitecontent.FileInfo{Name: "blob", MimeType: "text/plain"}, "bin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sitecontent.FileExtension(tt.file), tt.file.Name)
	}
}
