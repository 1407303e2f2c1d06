package main

import (
	"strings"

	knowsphere "github.com/knowsphere/knowsphere/pkg/sdk"
)

// insightRow is one row of an insight export.
//
// Expected columns: id (optional, source system ID), author_id, title, body,
// tags (list of strings), visibility (optional, "public" or "private").
type insightRow struct {
	SourceID   string
	AuthorID   string
	Title      string
	Body       string
	Tags       []string
	Visibility string
}

func (r *insightRow) request() knowsphere.PublishRequest {
	return knowsphere.PublishRequest{
		AuthorID:   r.AuthorID,
		Title:      r.Title,
		Body:       r.Body,
		Tags:       r.Tags,
		Visibility: knowsphere.Visibility(strings.ToLower(strings.TrimSpace(r.Visibility))),
	}
}

// position addresses a row: file index in sorted order and row index inside the file.
type position struct {
	File int `json:"file_index"`
	Row  int `json:"row_offset"`
}

// before reports whether p comes strictly before o in read order.
func (p position) before(o position) bool {
	if p.File != o.File {
		return p.File < o.File
	}
	return p.Row < o.Row
}
