package llms

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinegraph/cinegraph/pkg/httpclient"
)

// closeTrackingBody flags when the response body is closed.
type closeTrackingBody struct {
	io.Reader
	closed *bool
}

func (b *closeTrackingBody) Close() error {
	*b.closed = true
	return nil
}

// statusTransport answers every request with a fixed status and a
// close-tracked body.
type statusTransport struct {
	status int
	closed *bool
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: t.status,
		Header:     http.Header{},
		Body:       &closeTrackingBody{Reader: strings.NewReader(`{}`), closed: t.closed},
		Request:    req,
	}, nil
}

func trackingClient(status int, closed *bool) *httpclient.Client {
	return httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Transport: &statusTransport{status: status, closed: closed}}),
		httpclient.WithMaxRetries(0),
	)
}

// A non-2xx status yields both a response and an error from the retry
// client; the provider must close the body on that path too.
func TestOpenAIProvider_Generate_ClosesBodyOnHTTPError(t *testing.T) {
	var closed bool
	provider, err := NewOpenAIProvider(testLLMConfig("http://upstream.invalid"))
	require.NoError(t, err)
	provider.httpClient = trackingClient(http.StatusUnauthorized, &closed)

	_, err = provider.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.True(t, closed, "response body must be closed on HTTP error")
}

func TestGeminiProvider_GenerateWithTools_ClosesBodyOnHTTPError(t *testing.T) {
	var closed bool
	provider, err := NewGeminiProvider(testGeminiConfig("http://upstream.invalid"))
	require.NoError(t, err)
	provider.httpClient = trackingClient(http.StatusUnauthorized, &closed)

	_, _, err = provider.GenerateWithTools(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
	assert.True(t, closed, "response body must be closed on HTTP error")
}
