package handler

import (
	"io"
	"mime/multipart"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/portal-cidadao/domain"
)

// readUploads collects every file sent under the given multipart fields.
// A request without a multipart body yields no uploads.
func readUploads(ctx *fasthttp.RequestCtx, maxBytes int64, fields ...string) ([]domain.PhotoUpload, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		if err == fasthttp.ErrNoMultipartForm {
			return nil, nil
		}
		return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid multipart form", err)
	}

	var uploads []domain.PhotoUpload
	for _, field := range fields {
		for _, fh := range form.File[field] {
			if fh.Filename == "" {
				continue
			}
			if _, ok := domain.PhotoExtension(fh.Filename); !ok {
				return nil, domain.Invalidf("file type not allowed: %s", fh.Filename)
			}
			if maxBytes > 0 && fh.Size > maxBytes {
				return nil, domain.Invalidf("file too large: %s", fh.Filename)
			}
			content, err := readFile(fh)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, domain.PhotoUpload{Filename: fh.Filename, Content: content})
		}
	}
	return uploads, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "cannot read upload", err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "cannot read upload", err)
	}
	return content, nil
}
