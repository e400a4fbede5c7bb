package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

// multipartSlack covers the form framing around the file part
const multipartSlack = 1 << 20

// formFileField is the multipart field that carries the upload
const formFileField = "file"

// UploadResponse is returned by the upload and attach routes
type UploadResponse struct {
	URL string `json:"url"`
}

// UploadAsset stores a file for an entity without touching its record
func (h *Handler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	kind, err := sitecontent.ParseAssetKind(chi.URLParam(r, "kind"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	file, closeFile, err := readUpload(w, r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	defer closeFile()

	url, err := h.service.UploadAsset(r.Context(), sitecontent.UploadAssetRequest{
		Kind:     kind,
		EntityID: chi.URLParam(r, "id"),
		Slot:     sitecontent.Slot(chi.URLParam(r, "slot")),
		File:     file,
	})
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	renderData(w, r, http.StatusCreated, UploadResponse{URL: url})
}

func (h *Handler) attachAsset(kind sitecontent.AssetKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, closeFile, err := readUpload(w, r)
		if err != nil {
			renderError(w, r, h.logger, err)
			return
		}
		defer closeFile()

		url, err := h.service.AttachAsset(r.Context(), sitecontent.AttachAssetRequest{
			Kind:     kind,
			EntityID: chi.URLParam(r, "id"),
			Slot:     sitecontent.Slot(chi.URLParam(r, "slot")),
			File:     file,
		})
		if err != nil {
			renderError(w, r, h.logger, err)
			return
		}
		h.invalidate(r.Context(), kind)
		renderData(w, r, http.StatusOK, UploadResponse{URL: url})
	}
}

func (h *Handler) removeAsset(kind sitecontent.AssetKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slot := sitecontent.Slot(chi.URLParam(r, "slot"))
		if err := h.service.RemoveAsset(r.Context(), kind, id, slot); err != nil {
			renderError(w, r, h.logger, err)
			return
		}
		h.invalidate(r.Context(), kind)
		renderData(w, r, http.StatusOK, map[string]string{"id": id, "slot": string(slot)})
	}
}

// ListAssets lists the stored objects of one entity
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	kind, err := sitecontent.ParseAssetKind(chi.URLParam(r, "kind"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	assets, err := h.service.ListAssets(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	if assets == nil {
		assets = []sitecontent.AssetDescriptor{}
	}
	renderData(w, r, http.StatusOK, assets)
}

// ServeObject streams a stored object at its public URL
func (h *Handler) ServeObject(w http.ResponseWriter, r *http.Request) {
	store := h.service.Assets()
	if chi.URLParam(r, "bucket") != store.Bucket() {
		renderError(w, r, h.logger, sitecontent.ErrObjectNotFound)
		return
	}
	key := chi.URLParam(r, "*")

	meta, err := store.Blobs().GetObjectMeta(r.Context(), key)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	body, err := store.Blobs().Download(r.Context(), key)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	defer body.Close()

	if meta.ContentType != "" {
		w.Header().Set("Content-Type", meta.ContentType)
	}
	if meta.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}
	if meta.ETag != "" {
		w.Header().Set("ETag", meta.ETag)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("Object stream interrupted", "key", key, "error", err)
	}
}

// readUpload pulls the file part out of a multipart request. The caller
// closes the file once the upload is done.
func readUpload(w http.ResponseWriter, r *http.Request) (sitecontent.File, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, sitecontent.MaxFileSize+multipartSlack)

	f, header, err := r.FormFile(formFileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return sitecontent.File{}, nil, badRequest(formFileField, "File must be under 50MB")
		}
		return sitecontent.File{}, nil, badRequest(formFileField, fmt.Sprintf("multipart field %q is required", formFileField))
	}

	return sitecontent.File{
		FileInfo: fileInfo(header),
		Body:     f,
	}, func() {
		f.Close()
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}, nil
}

func fileInfo(header *multipart.FileHeader) sitecontent.FileInfo {
	return sitecontent.FileInfo{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
	}
}
