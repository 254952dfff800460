package models

type InitiateUploadInput struct {
	FileName string `json:"filename" validate:"required,lte=255"`
	FileSize int64  `json:"file_size" validate:"required"`
}

// MultipartUpload identifies an in-flight multipart upload: the job key the
// object will live under in the raw bucket, and the provider upload id.
type MultipartUpload struct {
	Key      string `json:"key"`
	UploadID string `json:"upload_id"`
}

type PartUploadURL struct {
	SignedURL  string `json:"signed_url"`
	PartNumber int32  `json:"part_number"`
}

type CompletedPart struct {
	ETag       string `json:"etag"`
	PartNumber int32  `json:"part_number"`
}
