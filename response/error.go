// response/error.go
// This package provides utility functions and structures for handling and categorizing failed download responses.
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/deploymenttheory/go-share-downloader/logger"
	"golang.org/x/net/html"
)

// maxErrorBodySize bounds how much of a failed response body is read for diagnostics.
const maxErrorBodySize = 64 << 10

// TransportError represents a download request that failed to complete or returned a
// non-success status.
type TransportError struct {
	StatusCode  int    `json:"status_code,omitempty"` // HTTP status code, zero when no response was received
	Status      string `json:"status,omitempty"`      // HTTP status line text
	Method      string `json:"method"`                // HTTP method used for the request
	URL         string `json:"url"`                   // The URL of the HTTP request
	Message     string `json:"message"`               // Summary of the error
	RawResponse string `json:"raw_response,omitempty"`
	Err         error  `json:"-"` // Underlying cause, if any
}

// Error returns a string representation of the TransportError.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %s %s: %v", e.Method, e.URL, e.Err)
	}

	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Message == "" {
		return fmt.Sprintf("transport error: %s %s returned %s", e.Method, e.URL, status)
	}
	return fmt.Sprintf("transport error: %s %s returned %s: %s", e.Method, e.URL, status, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewRequestError wraps a failure to send a request or read its response body.
func NewRequestError(method, url string, err error) *TransportError {
	return &TransportError{
		Method:  method,
		URL:     url,
		Message: "request failed",
		Err:     err,
	}
}

// HandleErrorResponse builds a TransportError from a non-success response and logs it.
// The body is read (up to a bounded size) and a message is extracted according to its
// Content-Type. The caller remains responsible for closing the body.
func HandleErrorResponse(resp *http.Response, log logger.Logger) *TransportError {
	transportError := &TransportError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Message:    http.StatusText(resp.StatusCode),
	}
	if resp.Request != nil {
		transportError.Method = resp.Request.Method
		transportError.URL = resp.Request.URL.String()
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		transportError.RawResponse = "Failed to read response body"
	} else {
		mimeType, _ := ParseContentTypeHeader(resp.Header.Get("Content-Type"))
		switch mimeType {
		case "application/json":
			parseJSONResponse(bodyBytes, transportError)
		case "application/xml", "text/xml":
			parseXMLResponse(bodyBytes, transportError)
		case "text/html":
			parseHTMLResponse(bodyBytes, transportError)
		case "text/plain":
			parseTextResponse(bodyBytes, transportError)
		default:
			transportError.RawResponse = string(bodyBytes)
		}
	}

	log.LogError("download_error", transportError.Method, transportError.URL, transportError.StatusCode, transportError.Status, transportError, transportError.RawResponse)

	return transportError
}

// parseJSONResponse extracts a message from common JSON error shapes such as
// {"message": "..."} and {"error": {"message": "..."}}.
func parseJSONResponse(bodyBytes []byte, transportError *TransportError) {
	transportError.RawResponse = string(bodyBytes)

	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return
	}

	if body.Message != "" {
		transportError.Message = body.Message
		return
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &nested); err == nil && nested.Message != "" {
		transportError.Message = nested.Message
		return
	}

	var flat string
	if err := json.Unmarshal(body.Error, &flat); err == nil && flat != "" {
		transportError.Message = flat
	}
}

// parseXMLResponse dynamically parses XML error responses and accumulates potential error messages.
func parseXMLResponse(bodyBytes []byte, transportError *TransportError) {
	transportError.RawResponse = string(bodyBytes)

	doc, err := xmlquery.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return
	}

	var messages []string
	var traverse func(*xmlquery.Node)
	traverse = func(n *xmlquery.Node) {
		if n.Type == xmlquery.TextNode && strings.TrimSpace(n.Data) != "" {
			messages = append(messages, strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	if len(messages) > 0 {
		transportError.Message = strings.Join(messages, "; ")
	}
}

// parseTextResponse uses a plain text body as the error message.
func parseTextResponse(bodyBytes []byte, transportError *TransportError) {
	bodyText := strings.TrimSpace(string(bodyBytes))
	transportError.RawResponse = string(bodyBytes)
	if bodyText != "" {
		transportError.Message = bodyText
	}
}

// parseHTMLResponse extracts meaningful information from an HTML error page: the text of
// every <p> element (links rendered inline), falling back to the <title>.
func parseHTMLResponse(bodyBytes []byte, transportError *TransportError) {
	transportError.RawResponse = string(bodyBytes)

	doc, err := html.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return
	}

	var title string
	var messages []string
	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" {
					title = strings.TrimSpace(textContent(n))
				}
			case "p":
				if content := strings.TrimSpace(textContent(n)); content != "" {
					messages = append(messages, content)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}
	parse(doc)

	switch {
	case len(messages) > 0:
		transportError.Message = strings.Join(messages, "; ")
	case title != "":
		transportError.Message = title
	}
}

// textContent concatenates the text below n, rendering anchors as "[Link: href]".
func textContent(n *html.Node) string {
	var content strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			if text := strings.TrimSpace(c.Data); text != "" {
				content.WriteString(text + " ")
			}
		} else if c.Type == html.ElementNode && c.Data == "a" {
			for _, attr := range c.Attr {
				if attr.Key == "href" {
					content.WriteString("[Link: " + attr.Val + "] ")
					break
				}
			}
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return content.String()
}
