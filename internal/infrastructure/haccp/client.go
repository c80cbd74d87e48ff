package haccp

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/allerscan/backend/internal/domain"
	"github.com/allerscan/backend/internal/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const certImgListPath = "/CertImgListServiceV3/getCertImgListServiceV3"

// maxBodyBytes bounds how much of a registry response is read
const maxBodyBytes = 8 << 20

// Config holds configuration for the registry client
type Config struct {
	ServiceKey string
	BaseURL    string
	RatePerSec float64
	Burst      int
	Timeout    time.Duration
}

// Client queries the HACCP certified product image/label registry
type Client struct {
	httpClient  *http.Client
	serviceKey  string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new registry client. The limiter is shared by every request made through it.
func NewClient(config Config, log *zap.Logger) *Client {
	ratePerSec := config.RatePerSec
	if ratePerSec <= 0 {
		ratePerSec = 10
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 5
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		serviceKey:  config.ServiceKey,
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		logger:      log,
	}
}

// SearchByKind searches by classification keyword (prdkind)
func (c *Client) SearchByKind(ctx context.Context, kind string, pageNo, numOfRows int) (*domain.HACCPSearchResponse, error) {
	return c.search(ctx, "prdkind", kind, pageNo, numOfRows)
}

// SearchByProductName searches by product name (prdlstNm)
func (c *Client) SearchByProductName(ctx context.Context, name string, pageNo, numOfRows int) (*domain.HACCPSearchResponse, error) {
	return c.search(ctx, "prdlstNm", name, pageNo, numOfRows)
}

func (c *Client) search(ctx context.Context, field, term string, pageNo, numOfRows int) (*domain.HACCPSearchResponse, error) {
	params := url.Values{}
	params.Set("returnType", "xml")
	params.Set("pageNo", strconv.Itoa(pageNo))
	params.Set("numOfRows", strconv.Itoa(numOfRows))
	params.Set(field, term)
	params.Set("ServiceKey", c.serviceKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, certImgListPath, params.Encode())

	c.logger.Debug("[HACCP] Search",
		zap.String("field", field),
		zap.String("term", term),
		zap.Int("rows", numOfRows),
		zap.String("service_key", logger.MaskSecret(c.serviceKey)),
	)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	result, err := parseResponse(body)
	if err != nil {
		c.logger.Warn("[HACCP] Unusable response", zap.String("field", field), zap.String("term", term), zap.Error(err))
		return nil, err
	}

	c.logger.Debug("[HACCP] Search completed",
		zap.String("field", field),
		zap.String("term", term),
		zap.Int("items", len(result.Items)),
	)
	return result, nil
}

// doRequest executes an HTTP GET request and returns the body of a 200 response
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "AllerScan/1.0")
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the full URL including the service key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistryFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrRegistryFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrRegistryFailure, resp.StatusCode)
	}
	return body, nil
}

// certImgResponse covers both the normal envelope and the gateway error envelope
// (OpenAPI_ServiceResponse/cmmMsgHeader). A bare <body> root is accepted too.
type certImgResponse struct {
	XMLName xml.Name
	Header  *struct {
		ResultCode    string `xml:"resultCode"`
		ResultMessage string `xml:"resultMessage"`
	} `xml:"header"`
	Body      *certImgBody `xml:"body"`
	Items     *certImgItems `xml:"items"`
	ErrHeader *struct {
		ErrMsg        string `xml:"errMsg"`
		ReturnAuthMsg string `xml:"returnAuthMsg"`
	} `xml:"cmmMsgHeader"`
}

type certImgBody struct {
	Items      *certImgItems `xml:"items"`
	TotalCount string        `xml:"totalCount"`
}

type certImgItems struct {
	Item []domain.HACCPItem `xml:"item"`
}

// parseResponse decodes a registry body. Missing body, items or item elements mean no results.
func parseResponse(body []byte) (*domain.HACCPSearchResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if !bytes.HasPrefix(trimmed, []byte("<")) {
		return nil, fmt.Errorf("%w: non-XML body: %s", domain.ErrRegistryMalformed, truncate(string(trimmed), 200))
	}

	var env certImgResponse
	if err := xml.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistryMalformed, err)
	}

	if env.ErrHeader != nil {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrRegistryFailure, env.ErrHeader.ErrMsg, env.ErrHeader.ReturnAuthMsg)
	}

	result := &domain.HACCPSearchResponse{Items: []domain.HACCPItem{}}

	items := env.Items
	if env.Body != nil {
		items = env.Body.Items
		result.TotalCount, _ = strconv.Atoi(strings.TrimSpace(env.Body.TotalCount))
	}
	if items == nil {
		return result, nil
	}

	for _, item := range items.Item {
		result.Items = append(result.Items, normalizeItem(item))
	}
	if result.TotalCount == 0 {
		result.TotalCount = len(result.Items)
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
