package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/experience-engine/server/internal/core/error"
)

func TestHeadMediaTyperContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}))
	defer srv.Close()

	typer := NewHeadMediaTyper()
	main, sub, err := typer.ContentType(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "text", main)
	assert.Equal(t, "html", sub)
}

func TestHeadMediaTyperErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	typer := NewHeadMediaTyper()
	_, _, err := typer.ContentType(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errx.StatusOf(err))
}

func TestHeadMediaTyperMissingHeaderDefaultsToBinary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	typer := NewHeadMediaTyper()
	main, sub, err := typer.ContentType(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "application", main)
	assert.Equal(t, "octet-stream", sub)
}

func TestURLContentMessage(t *testing.T) {
	const prompt = "Extract everything relevant."
	const url = "https://example.com/doc"

	t.Run("text stays a plain message", func(t *testing.T) {
		msg, err := URLContentMessage(prompt, url, "text", "html")
		require.NoError(t, err)
		assert.Empty(t, msg.MultiContent)
		assert.Contains(t, msg.Content, url)
	})

	t.Run("image becomes an image part", func(t *testing.T) {
		msg, err := URLContentMessage(prompt, url, "image", "png")
		require.NoError(t, err)
		require.Len(t, msg.MultiContent, 2)
		assert.Equal(t, schema.ChatMessagePartTypeText, msg.MultiContent[0].Type)
		require.Equal(t, schema.ChatMessagePartTypeImageURL, msg.MultiContent[1].Type)
		assert.Equal(t, url, msg.MultiContent[1].ImageURL.URL)
		assert.Equal(t, "image/png", msg.MultiContent[1].ImageURL.MIMEType)
	})

	t.Run("video becomes a video part", func(t *testing.T) {
		msg, err := URLContentMessage(prompt, url, "video", "mp4")
		require.NoError(t, err)
		require.Len(t, msg.MultiContent, 2)
		assert.Equal(t, schema.ChatMessagePartTypeVideoURL, msg.MultiContent[1].Type)
	})

	t.Run("audio becomes an audio part", func(t *testing.T) {
		msg, err := URLContentMessage(prompt, url, "audio", "mpeg")
		require.NoError(t, err)
		require.Len(t, msg.MultiContent, 2)
		assert.Equal(t, schema.ChatMessagePartTypeAudioURL, msg.MultiContent[1].Type)
	})

	t.Run("pdf becomes a file part", func(t *testing.T) {
		msg, err := URLContentMessage(prompt, url, "application", "pdf")
		require.NoError(t, err)
		require.Len(t, msg.MultiContent, 2)
		require.Equal(t, schema.ChatMessagePartTypeFileURL, msg.MultiContent[1].Type)
		assert.Equal(t, "application/pdf", msg.MultiContent[1].FileURL.MIMEType)
	})

	t.Run("unsupported application subtype is a client fault", func(t *testing.T) {
		_, err := URLContentMessage(prompt, url, "application", "zip")
		require.Error(t, err)
		assert.ErrorIs(t, err, errx.ErrUnsupportedMedia)
		assert.True(t, errx.IsClientFault(err))
	})
}
