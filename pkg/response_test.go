package pkg

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type TestHttpResponseWriter struct {
	HeaderMap  http.Header
	Body       []byte
	StatusCode int
}

func (w *TestHttpResponseWriter) Header() http.Header {
	return w.HeaderMap
}

func (w *TestHttpResponseWriter) Write(bytes []byte) (int, error) {
	w.Body = bytes
	return len(bytes), nil
}

func (w *TestHttpResponseWriter) WriteHeader(statusCode int) {
	w.StatusCode = statusCode
}

func TestWriteResponseBytes(t *testing.T) {
	w := &TestHttpResponseWriter{
		HeaderMap: make(http.Header),
	}

	testJson := `{"slug":"my-first-post"}`
	WriteResponseBytes(w, ContentType.JSON, []byte(testJson), http.StatusOK)

	assert.Equal(t, http.StatusOK, w.StatusCode)
	assert.Equal(t, ContentType.JSON, w.HeaderMap.Get("Content-Type"))
	assert.Equal(t, testJson, string(w.Body))
}

func TestWriteTextResponseOK(t *testing.T) {
	w := &TestHttpResponseWriter{
		HeaderMap: make(http.Header),
	}

	WriteTextResponseOK(w, "I'm OK, thanks ;)")

	assert.Equal(t, http.StatusOK, w.StatusCode)
	assert.Equal(t, ContentType.Text, w.HeaderMap.Get("Content-Type"))
	assert.Equal(t, "I'm OK, thanks ;)", string(w.Body))
}

func TestReadUserIP(t *testing.T) {
	req, err := http.NewRequest("GET", "/contact", nil)
	assert.NoError(t, err)
	req.RemoteAddr = "10.10.10.10:43210"

	ip, err := ReadUserIP(req)
	assert.NoError(t, err)
	assert.Equal(t, "10.10.10.10", ip)

	req.Header.Set("X-Forwarded-For", "100.1.2.3, 10.0.0.1")
	ip, err = ReadUserIP(req)
	assert.NoError(t, err)
	assert.Equal(t, "100.1.2.3", ip)

	req.Header.Set("X-Real-Ip", "100.9.8.7")
	ip, err = ReadUserIP(req)
	assert.NoError(t, err)
	assert.Equal(t, "100.9.8.7", ip)
}
