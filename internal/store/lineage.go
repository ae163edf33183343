package store

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/esgkit/factpanel/internal/collab"
	"github.com/esgkit/factpanel/internal/model"
)

// ResolveLineage walks a source pointer of the form
//
//	<document_id>/pagenum-<N>/<segment>
//
// back to its raw segment artifact and, when one exists, the rendered page
// image. A pointer that cannot be parsed or whose segment artifact is gone
// yields a *model.LineageError; callers treat that as "no evidence", not as
// a failure of the owning row.
func (s *Store) ResolveLineage(ctx context.Context, sourcePointer string) (*collab.ResolveLineageResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	documentID, pageToken, segmentToken, err := parsePointer(sourcePointer)
	if err != nil {
		return nil, err
	}

	contextFile := s.segmentPath(documentID, pageToken, segmentToken)
	data, err := os.ReadFile(contextFile)
	if err != nil {
		return nil, &model.LineageError{
			SourcePointer: sourcePointer,
			Reason:        "segment artifact unreadable: " + err.Error(),
		}
	}

	resp := &collab.ResolveLineageResponse{
		ContextRaw:  strings.TrimSpace(string(data)),
		ContextFile: contextFile,
	}

	if pageNum, ok := parsePageToken(pageToken); ok {
		imgPath := s.PagePath(documentID, pageNum)
		if _, err := os.Stat(imgPath); err == nil {
			resp.EvidenceImage = imgPath
		}
	}
	return resp, nil
}

// parsePointer splits a pointer into its document, page and segment tokens.
// The document id may itself contain slashes; the page and segment tokens are
// always the last two path elements.
func parsePointer(pointer string) (documentID, pageToken, segmentToken string, err error) {
	parts := strings.Split(strings.Trim(pointer, "/"), "/")
	if len(parts) < 3 {
		return "", "", "", &model.LineageError{
			SourcePointer: pointer,
			Reason:        "expected <document>/<page>/<segment>",
		}
	}
	segmentToken = parts[len(parts)-1]
	pageToken = parts[len(parts)-2]
	documentID = strings.Join(parts[:len(parts)-2], "/")

	if _, ok := parsePageToken(pageToken); !ok {
		return "", "", "", &model.LineageError{
			SourcePointer: pointer,
			Reason:        "malformed page token " + strconv.Quote(pageToken),
		}
	}
	if segmentToken == "" {
		return "", "", "", &model.LineageError{
			SourcePointer: pointer,
			Reason:        "empty segment token",
		}
	}
	return documentID, pageToken, segmentToken, nil
}

func parsePageToken(token string) (int, bool) {
	rest, ok := strings.CutPrefix(token, "pagenum-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
