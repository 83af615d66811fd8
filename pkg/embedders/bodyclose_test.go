package embedders

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

type closeTrackingBody struct {
	io.Reader
	closed *bool
}

func (b *closeTrackingBody) Close() error {
	*b.closed = true
	return nil
}

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

// A non-2xx status yields both a response and an error from the retry
// client; the embedder must close the body on that path too.
func TestOpenAIEmbedder_Embed_ClosesBodyOnHTTPError(t *testing.T) {
	var closed bool
	embedder, err := NewOpenAIEmbedder(testEmbedderConfig("http://upstream.invalid"))
	require.NoError(t, err)
	embedder.httpClient = httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Transport: &statusTransport{status: http.StatusUnauthorized, closed: &closed}}),
		httpclient.WithMaxRetries(0),
	)

	_, err = embedder.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, closed, "response body must be closed on HTTP error")
}
