package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/refenti-content/pkg/sitecontent"
	"github.com/tendant/refenti-content/pkg/sitecontent/config"
)

const testSecret = "admin-cli-test-secret"

func runAdmin(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), append([]string{"refenti-admin"}, args...))
	return out.String(), err
}

// useSQLite points the CLI at a temp sqlite database and fs storage and
// returns a service over the same stores for seeding.
func useSQLite(t *testing.T) sitecontent.Service {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "content.db"))
	t.Setenv("STORAGE_TYPE", "fs")
	t.Setenv("STORAGE_FS_BASE_DIR", filepath.Join(dir, "storage"))

	cfg, err := config.LoadServerConfig("")
	require.NoError(t, err)
	rt, err := cfg.BuildService(context.Background(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt.Service
}

func seedEvent(t *testing.T, svc sitecontent.Service) *sitecontent.EventItem {
	t.Helper()
	ctx := context.Background()
	event, err := svc.CreateEvent(ctx, &sitecontent.EventItem{Title: "Spring Gala", Date: "April 2025"})
	require.NoError(t, err)
	_, err = svc.AttachAsset(ctx, sitecontent.AttachAssetRequest{
		Kind:     sitecontent.KindEvents,
		EntityID: event.ID,
		Slot:     sitecontent.SlotImage,
		File: sitecontent.File{
			FileInfo: sitecontent.FileInfo{Name: "gala.jpg", MimeType: sitecontent.MimeJPEG, Size: 4},
			Body:     strings.NewReader("\xff\xd8\xff\xe0"),
		},
	})
	require.NoError(t, err)
	return event
}

func TestToken(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)

	out, err := runAdmin(t, "token", "--subject", "editor")
	require.NoError(t, err)

	auth := jwtauth.New("HS256", []byte(testSecret), nil)
	token, err := jwtauth.VerifyToken(auth, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "editor", token.Subject())
	assert.Equal(t, "refenti-admin", token.Issuer())
	assert.False(t, token.Expiration().IsZero())
}

func TestToken_RequiresSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := runAdmin(t, "token")
	assert.Error(t, err)
}

func TestListAndDelete(t *testing.T) {
	svc := useSQLite(t)
	event := seedEvent(t, svc)

	out, err := runAdmin(t, "list", "events")
	require.NoError(t, err)
	assert.Contains(t, out, "FEATURED")
	assert.Contains(t, out, event.ID)
	assert.Contains(t, out, "Spring Gala")

	out, err = runAdmin(t, "assets", "events", event.ID)
	require.NoError(t, err)
	assert.Regexp(t, `events/spring-gala-\d+\.jpg`, out)

	out, err = runAdmin(t, "delete", "events", event.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "record=true assets=1")

	events, err := svc.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPurgeAssets_KeepsRecord(t *testing.T) {
	svc := useSQLite(t)
	event := seedEvent(t, svc)

	out, err := runAdmin(t, "purge-assets", "events", event.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 asset(s)")

	_, err = svc.GetEvent(context.Background(), event.ID)
	assert.NoError(t, err)
}

func TestListInquiries_JSON(t *testing.T) {
	svc := useSQLite(t)
	_, err := svc.SubmitInquiry(context.Background(), sitecontent.SubmitInquiryRequest{
		Name: "Ada", Email: "ada@example.com", Type: "Sales", Message: "Hello",
	})
	require.NoError(t, err)

	out, err := runAdmin(t, "--json", "list", "inquiries")
	require.NoError(t, err)
	assert.Contains(t, out, `"email": "ada@example.com"`)
}

func TestStats(t *testing.T) {
	svc := useSQLite(t)
	seedEvent(t, svc)

	out, err := runAdmin(t, "--json", "stats")
	require.NoError(t, err)

	var stats []KindStatistics
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Len(t, stats, 4)
	assert.Equal(t, KindStatistics{Kind: "events", Records: 1, Assets: 1, AssetBytes: 4}, stats[1])
	assert.Equal(t, 0, stats[0].Records)
}

func TestArgumentErrors(t *testing.T) {
	useSQLite(t)

	_, err := runAdmin(t, "list", "villas")
	assert.Error(t, err)

	_, err = runAdmin(t, "delete", "projects")
	assert.Error(t, err)
}
