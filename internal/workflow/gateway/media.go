package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	errx "github.com/experience-engine/server/internal/core/error"
)

// Document subtypes the extraction path accepts for application/* URLs.
var documentSubtypes = map[string]bool{
	"pdf":    true,
	"msword": true,
	"vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// MediaTyper resolves the media type of a remote resource. The default
// implementation issues one HEAD request.
type MediaTyper interface {
	ContentType(ctx context.Context, url string) (mainType, subType string, err error)
}

// HeadMediaTyper detects content type with an HTTP HEAD request.
type HeadMediaTyper struct {
	Client *http.Client
}

func NewHeadMediaTyper() *HeadMediaTyper {
	return &HeadMediaTyper{Client: &http.Client{Timeout: 5 * time.Second}}
}

func (h *HeadMediaTyper) ContentType(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", "", errx.ClientFault(err, "invalid url")
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return "", "", errx.Upstream(err, "failed to reach url")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", "", errx.New(fmt.Errorf("HEAD %s: status %d", url, resp.StatusCode), resp.StatusCode, "failed to access url")
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	main, sub, ok := strings.Cut(strings.TrimSpace(contentType), "/")
	if !ok {
		return "", "", errx.ClientFault(fmt.Errorf("invalid content-type %q", contentType), "invalid content type")
	}
	return main, sub, nil
}

// URLContentMessage builds the user message for a remote resource: plain text
// stays text, everything else becomes multimodal content blocks matching the
// resource's media type. Unsupported types are a client fault, distinct from
// any model-call failure.
func URLContentMessage(prompt, url, mainType, subType string) (*schema.Message, error) {
	switch mainType {
	case "text":
		return schema.UserMessage(prompt + "\n\nSource URL: " + url), nil
	case "image":
		return multiContent(prompt, schema.ChatMessagePart{
			Type:     schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{URL: url, MIMEType: mainType + "/" + subType},
		}), nil
	case "video":
		return multiContent(prompt, schema.ChatMessagePart{
			Type:     schema.ChatMessagePartTypeVideoURL,
			VideoURL: &schema.ChatMessageVideoURL{URL: url, MIMEType: mainType + "/" + subType},
		}), nil
	case "audio":
		return multiContent(prompt, schema.ChatMessagePart{
			Type:     schema.ChatMessagePartTypeAudioURL,
			AudioURL: &schema.ChatMessageAudioURL{URL: url, MIMEType: mainType + "/" + subType},
		}), nil
	case "application":
		if documentSubtypes[subType] {
			return multiContent(prompt, schema.ChatMessagePart{
				Type:    schema.ChatMessagePartTypeFileURL,
				FileURL: &schema.ChatMessageFileURL{URL: url, MIMEType: mainType + "/" + subType},
			}), nil
		}
	}
	return nil, errx.ClientFault(
		fmt.Errorf("%w: %s/%s", errx.ErrUnsupportedMedia, mainType, subType),
		fmt.Sprintf("unsupported media type: %s/%s", mainType, subType),
	)
}

func multiContent(prompt string, part schema.ChatMessagePart) *schema.Message {
	return &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: prompt},
			part,
		},
	}
}
