package appray

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/appraysec/appray-cli/internal/errors"
	"github.com/appraysec/appray-cli/internal/version"
)

const apiBase = "/api/v1"

// Proxy is an outbound HTTP proxy applied to every request of a session
type Proxy struct {
	Host string
	Port int
}

// Client is an authenticated session against one App-Ray service.
// It is created by Authenticate, owned by exactly one orchestration run,
// and unusable after Close.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	closed     bool
}

// errorEnvelope is the JSON body the service returns for error responses
type errorEnvelope struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
}

func newHTTPClient(proxy *Proxy, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		proxyURL := &url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", proxy.Host, proxy.Port)}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Authenticate performs the password-grant request and returns a session
// bound to the base URL, bearer token and proxy. The connection used for
// authentication is shut down before the session's own client is built.
//
// Status mapping: 401 → invalid credentials, 404 → bad base URL, any other
// non-2xx → authentication failure carrying the status code.
func Authenticate(ctx context.Context, baseURL, username, password string, proxy *Proxy) (*Client, error) {
	authClient := newHTTPClient(proxy, 30*time.Second)
	defer authClient.CloseIdleConnections()

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("grant_type", "password")

	authURL := baseURL + apiBase + "/authentication"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRemoteUnreachable, "build authentication request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := authClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRemoteUnreachable, fmt.Sprintf("authentication request to %s failed", authURL), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.NewInvalidCredentialsError(username)
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NewEndpointNotFoundError(authURL)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, errors.NewAuthFailureError(resp.StatusCode)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, errors.NewRemoteParseError(resp.StatusCode, err, "authentication response")
	}

	return &Client{
		baseURL:    baseURL,
		token:      auth.AccessToken,
		httpClient: newHTTPClient(proxy, 5*time.Minute),
	}, nil
}

// BaseURL returns the service URL the session is bound to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close invalidates the session and releases its connections.
// Safe to call more than once; every call after the first is a no-op.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
}

// doRequest performs an authenticated request against an API path
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if c.closed {
		return nil, errors.New(errors.ErrCodeAuthSessionClosed, "session is closed")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiBase+path, body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRemoteUnreachable, "build request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", version.UserAgent())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRemoteUnreachable, fmt.Sprintf("%s %s failed", method, path), err)
	}

	return resp, nil
}

// checkResponse converts any non-2xx response into a typed remote error.
// The service's error envelope carries title and detail; when the body is
// not that envelope, the error keeps the parse failure and the raw body.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errors.NewRemoteParseError(resp.StatusCode, err, string(body))
	}

	return errors.NewRemoteError(resp.StatusCode, envelope.Title, envelope.Detail)
}

// GetUser fetches the account the session authenticated as
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/user", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.NewRemoteParseError(resp.StatusCode, err, "user response")
	}
	user.Role = ParseRole(user.RawRole)

	return &user, nil
}

// GetOrganization fetches the name of the account's organization
func (c *Client) GetOrganization(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/organization", nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return "", err
	}

	var org struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&org); err != nil {
		return "", errors.NewRemoteParseError(resp.StatusCode, err, "organization response")
	}

	return org.Name, nil
}

// SubmitApp uploads the application binary at path as a multipart request
// and returns the id of the scan job the service created for it.
func (c *Client) SubmitApp(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("open application %s", path), err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("app_file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	resp, err := c.doRequest(ctx, http.MethodPost, "/jobs", pr, writer.FormDataContentType())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeRemoteUnreachable, "read submit response", err)
	}

	if resp.StatusCode > 400 {
		var envelope errorEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return "", errors.NewRemoteParseError(resp.StatusCode, err, string(body))
		}
		return "", errors.New(errors.ErrCodeScanSubmitFailed,
			fmt.Sprintf("error(%d) submitting application for scanning: %s %s", resp.StatusCode, envelope.Title, envelope.Detail)).
			WithStatus(resp.StatusCode)
	}

	// The response body is a JSON string literal holding the job id.
	var jobID string
	if err := json.Unmarshal(body, &jobID); err != nil {
		return "", errors.NewRemoteParseError(resp.StatusCode, err, string(body))
	}

	return jobID, nil
}

// GetJobDetails fetches a fresh snapshot of the scan job.
// progress_total, progress_finished, risk_score and failure_reason are
// optional on the wire and default to zero values.
func (c *Client) GetJobDetails(ctx context.Context, jobID string) (*ScanJob, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var job ScanJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, errors.NewRemoteParseError(resp.StatusCode, err, "job details response")
	}
	job.ID = jobID

	return &job, nil
}

// GetJUnitReport fetches the scan results as a JUnit-format XML document
func (c *Client) GetJUnitReport(ctx context.Context, jobID string) ([]byte, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/junit", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRemoteUnreachable, "read junit response", err)
	}

	if resp.StatusCode > 400 {
		var envelope errorEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, errors.NewRemoteParseError(resp.StatusCode, err, string(body))
		}
		return nil, errors.New(errors.ErrCodeScanReportFailed,
			fmt.Sprintf("error(%d) fetching JUnit results; %s %s", resp.StatusCode, envelope.Title, envelope.Detail)).
			WithStatus(resp.StatusCode)
	}

	return body, nil
}
