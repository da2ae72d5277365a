package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const fallbackErrorMessage = "interview service request failed"

// Client talks to the remote interview service. All state lives server-side;
// the client only shuttles requests and decodes responses.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a client for the given base URL. Any timeout policy belongs
// here, in the transport, not in the session machine.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StartInterview issues POST /interview/start?role=<role>.
func (c *Client) StartInterview(ctx context.Context, role string) (StartResponse, error) {
	var out StartResponse
	endpoint := c.baseURL + "/interview/start?role=" + url.QueryEscape(role)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return out, &Error{Message: fallbackErrorMessage}
	}

	if err := c.do(req, &out); err != nil {
		return StartResponse{}, err
	}
	if out.InterviewID == "" || out.Question == "" {
		return StartResponse{}, &Error{Message: "service returned an incomplete interview"}
	}
	return out, nil
}

// SubmitAnswer uploads a finished answer recording as a multipart body with a
// single binary part named "audio".
func (c *Client) SubmitAnswer(ctx context.Context, interviewID string, audio []byte) (AnswerResponse, error) {
	var out AnswerResponse

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", "answer.wav")
	if err != nil {
		return out, &Error{Message: fallbackErrorMessage}
	}
	if _, err := part.Write(audio); err != nil {
		return out, &Error{Message: fallbackErrorMessage}
	}
	if err := writer.Close(); err != nil {
		return out, &Error{Message: fallbackErrorMessage}
	}

	endpoint := fmt.Sprintf("%s/interview/%s/answer", c.baseURL, url.PathEscape(interviewID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return out, &Error{Message: fallbackErrorMessage}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if err := c.do(req, &out); err != nil {
		return AnswerResponse{}, err
	}
	if err := out.Evaluation.Validate(); err != nil {
		return AnswerResponse{}, &Error{Message: "service returned an invalid evaluation"}
	}
	return out, nil
}

// NextQuestion issues GET /interview/{id}/next.
func (c *Client) NextQuestion(ctx context.Context, interviewID string) (NextResponse, error) {
	var out NextResponse
	endpoint := fmt.Sprintf("%s/interview/%s/next", c.baseURL, url.PathEscape(interviewID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return out, &Error{Message: fallbackErrorMessage}
	}

	if err := c.do(req, &out); err != nil {
		return NextResponse{}, err
	}
	if !out.Completed() && out.Question == "" {
		return NextResponse{}, &Error{Message: "service returned an empty question"}
	}
	return out, nil
}

// Summary issues GET /interview/{id}/summary.
func (c *Client) Summary(ctx context.Context, interviewID string) (Summary, error) {
	var out Summary
	endpoint := fmt.Sprintf("%s/interview/%s/summary", c.baseURL, url.PathEscape(interviewID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return out, &Error{Message: fallbackErrorMessage}
	}

	if err := c.do(req, &out); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// FetchAudio downloads the raw bytes of a server-hosted audio resource.
func (c *Client) FetchAudio(ctx context.Context, audioFile string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/audio/%s", c.baseURL, url.PathEscape(audioFile))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Message: fallbackErrorMessage}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &Error{StatusCode: resp.StatusCode, Message: extractMessage(body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}
	return data, nil
}

// do executes the request and decodes a JSON success body into out.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Message: extractMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: "service returned a malformed response"}
	}
	return nil
}

// extractMessage pulls a human-readable message out of an error body.
// FastAPI-style services use "detail"; some use "msg". Anything else falls
// back to a generic string.
func extractMessage(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Msg    string `json:"msg"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Msg != "" {
			return payload.Msg
		}
	}
	return fallbackErrorMessage
}

func transportError(err error) *Error {
	if err == nil {
		return &Error{Message: fallbackErrorMessage}
	}
	msg := err.Error()
	if msg == "" {
		msg = fallbackErrorMessage
	}
	return &Error{Message: msg}
}
