package sitecontent

// Request DTOs

// SubmitInquiryRequest is a visitor's contact form submission
type SubmitInquiryRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// UploadAssetRequest uploads a file for an entity without touching its
// record. Editors use it before the record exists, then embed the URL.
type UploadAssetRequest struct {
	Kind     AssetKind
	EntityID string
	Slot     Slot
	File     File
}

// AttachAssetRequest uploads a file into a field of an existing record.
type AttachAssetRequest struct {
	Kind     AssetKind
	EntityID string
	Slot     Slot
	File     File
}
