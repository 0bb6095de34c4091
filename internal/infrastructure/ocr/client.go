// Package ocr talks to an external OCR service that turns label photos into
// text.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/logging"
)

// Defaults applied by NewClient for zero Config fields
const (
	DefaultTimeout       = 30 * time.Second
	DefaultMaxImageBytes = 10 << 20
	maxImageRedirects    = 5
)

// errBlockedAddress is returned by the image dialer for non-public addresses.
var errBlockedAddress = errors.New("address is not publicly routable")

// Config configures the OCR client. An empty Endpoint disables OCR.
//
// AllowedImageHosts restricts which hosts label images may be fetched from;
// an entry also admits its subdomains and "*" admits any host. When it is
// empty any host is accepted, but images are never fetched from loopback,
// private or link-local addresses.
type Config struct {
	Endpoint          string
	Timeout           time.Duration
	MaxImageBytes     int64
	AllowedImageHosts []string
}

// Client downloads label images and sends them to the OCR endpoint, which
// answers with {"text": "..."}.
type Client struct {
	httpClient    *http.Client
	imageClient   *http.Client
	endpoint      string
	maxImageBytes int64
	allowedHosts  []string
	logger        *slog.Logger
}

type ocrResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// NewClient creates a new OCR client
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}

	allowed := make([]string, 0, len(cfg.AllowedImageHosts))
	for _, h := range cfg.AllowedImageHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed = append(allowed, h)
		}
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		endpoint:      strings.TrimSpace(cfg.Endpoint),
		maxImageBytes: cfg.MaxImageBytes,
		allowedHosts:  allowed,
		logger:        logging.New("ocr"),
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	if len(allowed) == 0 {
		dialer.Control = publicAddressOnly
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	c.imageClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxImageRedirects {
				return fmt.Errorf("stopped after %d redirects", maxImageRedirects)
			}
			return c.checkImageHost(req.URL)
		},
	}
	return c
}

// Enabled reports whether an OCR endpoint is configured.
func (c *Client) Enabled() bool {
	return c.endpoint != ""
}

// ExtractText downloads imageURL and returns the text the OCR service reads
// from it, trimmed.
func (c *Client) ExtractText(ctx context.Context, imageURL string) (string, error) {
	if !c.Enabled() {
		return "", domain.ErrOCRUnavailable
	}
	u, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: image url must be an absolute http(s) url", domain.ErrInvalidRequest)
	}

	if err := c.checkImageHost(u); err != nil {
		return "", err
	}

	image, contentType, err := c.download(ctx, u.String())
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOCRUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("ocr request failed", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("%w: status %d", domain.ErrOCRUnavailable, resp.StatusCode)
	}

	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrOCRUnavailable, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", domain.ErrOCRUnavailable, out.Error)
	}

	text := strings.TrimSpace(out.Text)
	c.logger.Debug("ocr completed", "bytes", len(image), "chars", len(text), "duration", time.Since(start))
	return text, nil
}

// download fetches the image, refusing bodies larger than maxImageBytes.
func (c *Client) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.imageClient.Do(req)
	if err != nil {
		if errors.Is(err, errBlockedAddress) || errors.Is(err, domain.ErrInvalidRequest) {
			return nil, "", fmt.Errorf("%w: image url: %v", domain.ErrInvalidRequest, err)
		}
		return nil, "", fmt.Errorf("%w: download image: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: download image: status %d", domain.ErrUpstreamFailure, resp.StatusCode)
	}

	image, err := io.ReadAll(io.LimitReader(resp.Body, c.maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read image: %v", domain.ErrUpstreamFailure, err)
	}
	if int64(len(image)) > c.maxImageBytes {
		return nil, "", fmt.Errorf("%w: image larger than %d bytes", domain.ErrInvalidRequest, c.maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}
	return image, contentType, nil
}

// checkImageHost applies the host allow-list. Without one, literal
// non-public IPs and localhost are refused up front; resolved names are
// checked again at dial time.
func (c *Client) checkImageHost(u *url.URL) error {
	host := strings.ToLower(u.Hostname())
	if len(c.allowedHosts) > 0 {
		if !hostAllowed(host, c.allowedHosts) {
			return fmt.Errorf("%w: image host %q is not allowed", domain.ErrInvalidRequest, host)
		}
		return nil
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: image host %q is not allowed", domain.ErrInvalidRequest, host)
	}
	if addr, err := netip.ParseAddr(host); err == nil && !isPublic(addr) {
		return fmt.Errorf("%w: image host %q is not allowed", domain.ErrInvalidRequest, host)
	}
	return nil
}

func hostAllowed(host string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

// publicAddressOnly is a net.Dialer Control hook refusing connections to
// non-public addresses after DNS resolution.
func publicAddressOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !isPublic(addr) {
		return fmt.Errorf("%w: %s", errBlockedAddress, addr)
	}
	return nil
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified()
}
