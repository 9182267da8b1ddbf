// Package export writes generated content to third-party workspaces.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jomei/notionapi"

	"lyra-backend-go/internal/core"
)

// maxRichTextLength is Notion's limit for one rich text object.
const maxRichTextLength = 2000

// Parent types accepted by Notion exports.
const (
	ParentDatabase = "database"
	ParentPage     = "page"
)

type pageCreator interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// NotionExporter creates pages with the caller's integration token.
type NotionExporter struct {
	pages func(token string) pageCreator
}

// NewNotionExporter returns an exporter that opens a Notion client per request.
func NewNotionExporter() *NotionExporter {
	return &NotionExporter{pages: func(token string) pageCreator {
		return notionapi.NewClient(notionapi.Token(token)).Page
	}}
}

func (e *NotionExporter) CreatePage(ctx context.Context, page core.WorkspacePage) (string, error) {
	if page.Token == "" {
		return "", errors.New("notion integration token is required")
	}
	if page.ParentID == "" {
		return "", errors.New("a database id or page id is required")
	}
	req, err := buildPageRequest(page)
	if err != nil {
		return "", err
	}

	created, err := e.pages(page.Token).Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("notion: create page: %w", err)
	}
	return created.ID.String(), nil
}

func buildPageRequest(page core.WorkspacePage) (*notionapi.PageCreateRequest, error) {
	title := []notionapi.RichText{textRun(page.Title)}
	req := &notionapi.PageCreateRequest{Children: paragraphs(page.Content)}

	switch page.ParentType {
	case ParentDatabase, "":
		req.Parent = notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: notionapi.DatabaseID(page.ParentID)}
		req.Properties = notionapi.Properties{
			"Name": notionapi.TitleProperty{Title: title},
		}
		if page.Kind != "" {
			req.Properties["Type"] = notionapi.SelectProperty{Select: notionapi.Option{Name: page.Kind}}
		}
	case ParentPage:
		req.Parent = notionapi.Parent{Type: notionapi.ParentTypePageID, PageID: notionapi.PageID(page.ParentID)}
		req.Properties = notionapi.Properties{
			"title": notionapi.TitleProperty{Title: title},
		}
	default:
		return nil, fmt.Errorf("unsupported notion parent type %q", page.ParentType)
	}
	return req, nil
}

// paragraphs turns blank-line separated text into paragraph blocks, splitting
// long paragraphs at the rich text limit.
func paragraphs(content string) []notionapi.Block {
	var blocks []notionapi.Block
	for _, para := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		var runs []notionapi.RichText
		for _, chunk := range chunkText(para, maxRichTextLength) {
			runs = append(runs, textRun(chunk))
		}
		blocks = append(blocks, notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeParagraph},
			Paragraph:  notionapi.Paragraph{RichText: runs},
		})
	}
	return blocks
}

func textRun(s string) notionapi.RichText {
	return notionapi.RichText{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}
}

// chunkText splits s into pieces of at most n runes.
func chunkText(s string, n int) []string {
	if utf8.RuneCountInString(s) <= n {
		return []string{s}
	}
	var out []string
	runes := []rune(s)
	for len(runes) > n {
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
