package handler

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/portal-cidadao/domain"
)

func isMultipart(ctx *fasthttp.RequestCtx) bool {
	return bytes.HasPrefix(ctx.Request.Header.ContentType(), []byte("multipart/form-data"))
}

func parseFormInt(ctx *fasthttp.RequestCtx, key string) (int64, error) {
	raw := strings.TrimSpace(formValue(ctx, key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Invalidf("%s must be an integer", key)
	}
	return v, nil
}

func parseFormFloat(ctx *fasthttp.RequestCtx, key string) (float64, error) {
	raw := strings.TrimSpace(formValue(ctx, key))
	if raw == "" {
		return 0, domain.Invalidf("%s is required", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.Invalidf("%s must be a number", key)
	}
	return v, nil
}

// formValue returns a multipart or urlencoded form field.
func formValue(ctx *fasthttp.RequestCtx, key string) string {
	return string(ctx.FormValue(key))
}
