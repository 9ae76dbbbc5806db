// Package htql scrapes the CTU student portal (HTQL) and its course
// registration subsystem.
package htql

import (
	"context"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"ctutimetable-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/htql")

const (
	DefaultBaseUrl = "https://qldt.ctu.edu.vn/htql"
	DefaultTimeout = 30 * time.Second

	sessionCookie = "PHPSESSID"

	loginPath       = "/sinhvien/dang_nhap.php"
	grantAccessPath = "/dkmh/student/dang_nhap.php"
	listingPath     = "/dkmh/student/index.php"
	listingAction   = "dmuc_mhoc_hky"

	// the portal renders this link only on pages served to logged out users
	logoutMarker = "../../logout.php"
)

// Session is the value of the portal's PHPSESSID cookie.
type Session string

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// defaults to DefaultTimeout
	Timeout time.Duration
	// optional PEM bundle that replaces the system roots, the portal
	// serves an incomplete certificate chain
	CAFile string
}

type Client struct {
	http *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(opts.BaseUrl, "/"))
	client.SetTimeout(opts.Timeout)
	// sessions are passed per request, a jar would replay an old PHPSESSID on
	// login and the portal would keep it instead of issuing a new one
	client.SetCookieJar(nil)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	// stale sessions are answered with a redirect, the response itself is what we inspect
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))

	if opts.CAFile != "" {
		pem, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read portal ca file: %w", err)
		}
		if !x509.NewCertPool().AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("portal ca file %s contains no certificates", opts.CAFile)
		}
		client.SetRootCertificateFromString(string(pem))
	}

	telemetry.InstrumentResty(client, "scrapers/htql/http")

	return &Client{http: client}, nil
}

func (c *Client) request(ctx context.Context, session Session) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if session != "" {
		req.SetCookie(&http.Cookie{Name: sessionCookie, Value: string(session)})
	}
	return req
}

// checkResponse turns transport errors and unexpected statuses into ErrUpstream
// and redirects to the logout page into ErrInvalidSession.
func checkResponse(res *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	status := res.StatusCode()
	if status >= 300 && status < 400 {
		if strings.Contains(res.Header().Get("Location"), "logout") {
			return ErrInvalidSession
		}
		return nil
	}
	if status >= 400 {
		return fmt.Errorf("%w: %s %s returned %s", ErrUpstream, res.Request.Method, res.Request.URL, res.Status())
	}
	return nil
}
