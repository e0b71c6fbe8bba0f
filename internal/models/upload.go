package models

// FileUpload carries a submitted file through validation and into the blob
// store. Data is fully buffered; uploads are capped well below memory limits
// by the size ceiling enforced before any gateway call.
type FileUpload struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}
