package mcp

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil qa service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingQAService)
	})

	t.Run("qa only creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{QA: &mockQAService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("all ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{QA: &mockQAService{}, Document: &mockDocumentService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingQAService)
	assert.ErrorIs(t, (&Ports{Document: &mockDocumentService{}}).Validate(), ErrMissingQAService)
	assert.NoError(t, (&Ports{QA: &mockQAService{}}).Validate())
}

func TestNewServer_NilPorts(t *testing.T) {
	_, err := NewServer(nil)
	assert.ErrorIs(t, err, ErrMissingQAService)
}

func TestServer_HTTPStopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{QA: &mockQAService{}})
	require.NoError(t, err)
	assert.NotNil(t, server.Handler())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- server.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunHTTPBadAddress(t *testing.T) {
	server, err := NewServer(&Ports{QA: &mockQAService{}})
	require.NoError(t, err)

	err = server.RunHTTP(context.Background(), "not-an-address")
	assert.Error(t, err)
}
