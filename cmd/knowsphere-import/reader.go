package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
)

const readBufferRows = 512

// parquetReader streams insight rows from every *.parquet file of a directory
// in lexical order.
type parquetReader struct {
	files []string
}

func newParquetReader(dir string) (*parquetReader, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("glob parquet files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no parquet files found in %s", dir)
	}
	sort.Strings(files)
	return &parquetReader{files: files}, nil
}

// rowCallback receives each row with its position. Returning false stops reading.
type rowCallback func(row *insightRow, pos position) bool

// Read streams rows starting at from. maxRows <= 0 means no limit.
func (r *parquetReader) Read(from position, maxRows int, cb rowCallback) error {
	remaining := maxRows
	for fi := from.File; fi < len(r.files); fi++ {
		skip := 0
		if fi == from.File {
			skip = from.Row
		}

		n, stopped, err := r.readFile(fi, skip, remaining, cb)
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(r.files[fi]), err)
		}
		if stopped {
			return nil
		}
		if maxRows > 0 {
			remaining -= n
			if remaining <= 0 {
				return nil
			}
		}
	}
	return nil
}

// columns maps the leaf column index of each known field; -1 when absent.
type columns struct {
	id, author, title, body, tags, visibility int
}

func resolveColumns(pf *parquet.File) (columns, error) {
	cols := columns{id: -1, author: -1, title: -1, body: -1, tags: -1, visibility: -1}
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		switch path[0] {
		case "id":
			cols.id = i
		case "author_id":
			cols.author = i
		case "title":
			cols.title = i
		case "body":
			cols.body = i
		case "tags":
			cols.tags = i
		case "visibility":
			cols.visibility = i
		}
	}
	if cols.author < 0 || cols.title < 0 || cols.body < 0 {
		return cols, errors.New("missing required column (author_id, title, body)")
	}
	return cols, nil
}

func (r *parquetReader) readFile(fi, skip, limit int, cb rowCallback) (n int, stopped bool, err error) {
	h, err := openParquet(r.files[fi])
	if err != nil {
		return 0, false, err
	}
	defer h.Close()

	cols, err := resolveColumns(h.pf)
	if err != nil {
		return 0, false, err
	}

	rowIdx := 0
	for _, rg := range h.pf.RowGroups() {
		groupRows := int(rg.NumRows())
		if rowIdx+groupRows <= skip {
			rowIdx += groupRows
			continue
		}

		rows := parquet.NewRowGroupReader(rg)
		buf := make([]parquet.Row, readBufferRows)
		for {
			cnt, readErr := rows.ReadRows(buf)
			for i := 0; i < cnt; i++ {
				if rowIdx < skip {
					rowIdx++
					continue
				}
				row := toInsightRow(buf[i], cols)
				if !cb(&row, position{File: fi, Row: rowIdx}) {
					_ = rows.Close()
					return n, true, nil
				}
				rowIdx++
				n++
				if limit > 0 && n >= limit {
					_ = rows.Close()
					return n, false, nil
				}
			}
			if readErr != nil {
				_ = rows.Close()
				if errors.Is(readErr, io.EOF) {
					break
				}
				return n, false, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return n, false, nil
}

func toInsightRow(row parquet.Row, cols columns) insightRow {
	var out insightRow
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		switch v.Column() {
		case cols.id:
			out.SourceID = v.String()
		case cols.author:
			out.AuthorID = v.String()
		case cols.title:
			out.Title = v.String()
		case cols.body:
			out.Body = v.String()
		case cols.tags:
			out.Tags = append(out.Tags, v.String())
		case cols.visibility:
			out.Visibility = v.String()
		}
	}
	return out
}

// parquetHandle wraps parquet.File and the underlying os.File for cleanup.
type parquetHandle struct {
	pf   *parquet.File
	file *os.File
}

func (h *parquetHandle) Close() {
	_ = h.file.Close()
}

func openParquet(path string) (*parquetHandle, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	return &parquetHandle{pf: pf, file: f}, nil
}
