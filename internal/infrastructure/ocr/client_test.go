package ocr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n fake image body")

// testImageHosts admits the httptest image server.
var testImageHosts = []string{"127.0.0.1"}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.png":
			w.WriteHeader(http.StatusNotFound)
			return
		case "/redirect.png":
			http.Redirect(w, r, "http://metadata.internal/latest", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExtractText_Disabled(t *testing.T) {
	client := NewClient(Config{})

	assert.False(t, client.Enabled())
	_, err := client.ExtractText(context.Background(), "https://example.org/label.png")
	assert.ErrorIs(t, err, domain.ErrOCRUnavailable)
}

func TestExtractText_Success(t *testing.T) {
	images := imageServer(t)
	ocrServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, body)

		_, _ = w.Write([]byte(`{"text": "  Energy 250kcal Fat 12.5g \n"}`))
	}))
	defer ocrServer.Close()

	client := NewClient(Config{Endpoint: ocrServer.URL, AllowedImageHosts: testImageHosts})
	text, err := client.ExtractText(context.Background(), images.URL+"/label.png")

	require.NoError(t, err)
	assert.Equal(t, "Energy 250kcal Fat 12.5g", text)
}

func TestExtractText_InvalidURL(t *testing.T) {
	client := NewClient(Config{Endpoint: "http://ocr.invalid"})

	for _, raw := range []string{"", "label.png", "ftp://example.org/label.png", "http://"} {
		_, err := client.ExtractText(context.Background(), raw)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest, raw)
	}
}

func TestExtractText_ImageDownloadFails(t *testing.T) {
	images := imageServer(t)
	client := NewClient(Config{Endpoint: "http://ocr.invalid", AllowedImageHosts: testImageHosts})

	_, err := client.ExtractText(context.Background(), images.URL+"/missing.png")
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
}

func TestExtractText_ImageTooLarge(t *testing.T) {
	images := imageServer(t)
	client := NewClient(Config{Endpoint: "http://ocr.invalid", MaxImageBytes: 4, AllowedImageHosts: testImageHosts})

	_, err := client.ExtractText(context.Background(), images.URL+"/label.png")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestExtractText_ServiceError(t *testing.T) {
	images := imageServer(t)

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200 status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"error payload", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error": "unsupported image"}`))
		}},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`text`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ocrServer := httptest.NewServer(tt.handler)
			defer ocrServer.Close()

			client := NewClient(Config{Endpoint: ocrServer.URL, AllowedImageHosts: testImageHosts})
			_, err := client.ExtractText(context.Background(), images.URL+"/label.png")
			assert.ErrorIs(t, err, domain.ErrOCRUnavailable)
		})
	}
}

func TestExtractText_ImageHostPolicy(t *testing.T) {
	images := imageServer(t)

	t.Run("non-public addresses refused without allow-list", func(t *testing.T) {
		client := NewClient(Config{Endpoint: "http://ocr.invalid"})
		for _, raw := range []string{
			images.URL + "/label.png",
			"http://localhost:8080/label.png",
			"http://10.0.0.7/label.png",
			"http://169.254.169.254/latest/meta-data",
			"http://[::1]/label.png",
		} {
			_, err := client.ExtractText(context.Background(), raw)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest, raw)
		}
	})

	t.Run("host outside allow-list", func(t *testing.T) {
		client := NewClient(Config{Endpoint: "http://ocr.invalid", AllowedImageHosts: []string{"images.openfoodfacts.org"}})
		_, err := client.ExtractText(context.Background(), images.URL+"/label.png")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("redirect to a host outside allow-list", func(t *testing.T) {
		client := NewClient(Config{Endpoint: "http://ocr.invalid", AllowedImageHosts: testImageHosts})
		_, err := client.ExtractText(context.Background(), images.URL+"/redirect.png")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestHostAllowed(t *testing.T) {
	allowed := []string{"openfoodfacts.org", "cdn.example.com"}

	tests := []struct {
		host string
		want bool
	}{
		{"openfoodfacts.org", true},
		{"images.openfoodfacts.org", true},
		{"cdn.example.com", true},
		{"example.com", false},
		{"evilopenfoodfacts.org", false},
		{"127.0.0.1", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, hostAllowed(tt.host, allowed), tt.host)
	}
	assert.True(t, hostAllowed("anything.test", []string{"*"}))
}

func TestPublicAddressOnly(t *testing.T) {
	tests := []struct {
		address string
		blocked bool
	}{
		{"93.184.216.34:443", false},
		{"[2606:4700::1111]:443", false},
		{"127.0.0.1:80", true},
		{"10.1.2.3:80", true},
		{"192.168.0.10:80", true},
		{"169.254.169.254:80", true},
		{"[::1]:80", true},
		{"[::ffff:127.0.0.1]:80", true},
		{"0.0.0.0:80", true},
	}

	for _, tt := range tests {
		err := publicAddressOnly("tcp", tt.address, nil)
		if tt.blocked {
			assert.ErrorIs(t, err, errBlockedAddress, tt.address)
		} else {
			assert.NoError(t, err, tt.address)
		}
	}
}
