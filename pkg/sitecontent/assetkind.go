package sitecontent

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AssetKind is the entity kind that owns an asset. Its string value is the
// top-level storage folder.
type AssetKind string

const (
	KindProjects AssetKind = "projects"
	KindEvents   AssetKind = "events"
	KindNews     AssetKind = "news"
)

// Layout is how a kind arranges its objects under its folder.
type Layout int

const (
	// LayoutNested keeps one subfolder per entity: <kind>/<id>/<slot>-<ms>.<ext>
	LayoutNested Layout = iota
	// LayoutFlat keeps every entity in one folder: <kind>/<id>-<ms>.<ext>
	LayoutFlat
)

// ParseAssetKind accepts the folder name of a kind.
func ParseAssetKind(s string) (AssetKind, error) {
	switch k := AssetKind(strings.ToLower(s)); k {
	case KindProjects, KindEvents, KindNews:
		return k, nil
	}
	return "", &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown asset kind %q", s)}
}

// Layout returns the storage layout of the kind.
func (k AssetKind) Layout() Layout {
	if k == KindProjects {
		return LayoutNested
	}
	return LayoutFlat
}

// Singular names one record of the kind, for messages.
func (k AssetKind) Singular() string {
	switch k {
	case KindProjects:
		return "project"
	case KindEvents:
		return "event"
	case KindNews:
		return "news item"
	}
	return string(k)
}

// EntityPrefix is the key prefix every object of the entity starts with.
func (k AssetKind) EntityPrefix(entityID string) string {
	if k.Layout() == LayoutNested {
		return fmt.Sprintf("%s/%s/", k, entityID)
	}
	return fmt.Sprintf("%s/%s-", k, entityID)
}

// ObjectKey builds the storage key for an upload. Flat kinds ignore the slot.
func (k AssetKind) ObjectKey(entityID string, slot Slot, ext string, at time.Time) string {
	ms := at.UnixMilli()
	if k.Layout() == LayoutNested {
		return fmt.Sprintf("%s/%s/%s-%d.%s", k, entityID, slot, ms, ext)
	}
	return fmt.Sprintf("%s/%s-%d.%s", k, entityID, ms, ext)
}

// Owns reports whether key is an object of the entity. For flat kinds the
// filename must be exactly <id>-<digits>.<ext>, so "bole" does not claim the
// files of "bole-east".
func (k AssetKind) Owns(entityID, key string) bool {
	prefix := k.EntityPrefix(entityID)
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	if k.Layout() == LayoutNested {
		return len(key) > len(prefix)
	}
	return flatSuffix.MatchString(key[len(prefix):])
}

var flatSuffix = regexp.MustCompile(`^\d+\.[^./]+$`)

// Slot names the field of a record an asset fills.
type Slot string

const (
	SlotHero     Slot = "hero"
	SlotIntro    Slot = "intro"
	SlotBrochure Slot = "brochure"
	// SlotImage is the single image of an event or news item.
	SlotImage Slot = "image"
)

const detailSlotPrefix = "detail-"

// DetailSlot is the slot of project detail section i.
func DetailSlot(i int) Slot {
	return Slot(detailSlotPrefix + strconv.Itoa(i))
}

// DetailIndex returns the section index of a detail slot.
func (s Slot) DetailIndex() (int, bool) {
	raw, ok := strings.CutPrefix(string(s), detailSlotPrefix)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// ValidFor reports whether the kind has the slot.
func (s Slot) ValidFor(k AssetKind) bool {
	if k.Layout() == LayoutFlat {
		return s == SlotImage
	}
	switch s {
	case SlotHero, SlotIntro, SlotBrochure:
		return true
	}
	_, ok := s.DetailIndex()
	return ok
}

var extByMime = map[string]string{
	MimeJPEG: "jpg",
	MimePNG:  "png",
	MimeWebP: "webp",
	MimePDF:  "pdf",
}

// FileExtension returns the lower-cased extension of the file name, or one
// derived from the MIME type when the name has none.
func FileExtension(f FileInfo) string {
	if ext := strings.TrimPrefix(path.Ext(f.Name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if ext, ok := extByMime[f.MimeType]; ok {
		return ext
	}
	return "bin"
}
