package report

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/srctrans/comkit/comment"
)

func sampleUnits() []comment.Unit {
	return []comment.Unit{
		{
			Name: "a.cpp",
			Path: "a.cpp",
			Blocks: []comment.Block{
				{ID: 0, Type: comment.TypeSingle, Line: 1, Segments: []comment.Segment{
					{Index: comment.Index{File: "a.cpp", Block: 0, Segment: 0}, Text: "hello", Line: 1},
				}},
				{ID: 1, Type: comment.TypeBlock, Line: 3, Segments: []comment.Segment{
					{Index: comment.Index{File: "a.cpp", Block: 1, Segment: 0}, Text: "one", Line: 3},
					{Index: comment.Index{File: "a.cpp", Block: 1, Segment: 1}, Text: "two", Line: 4},
				}},
			},
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleUnits())

	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if rows[0].File != "a.cpp" || rows[0].Type != comment.TypeSingle || rows[0].Segment != "hello" {
		t.Fatalf("rows[0] = %+v", rows[0])
	}
	if got := rows[2].Index.String(); got != "a.cpp:1:1" {
		t.Fatalf("rows[2].Index = %q, want %q", got, "a.cpp:1:1")
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultName)

	if err := Write(path, Rows(sampleUnits())); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4 (header + 3)", len(rows))
	}
	if rows[0][0] != "File Name" || rows[0][3] != "Comment Segment" {
		t.Fatalf("header = %v", rows[0])
	}
	want := []string{"a.cpp", "block", "a.cpp:1:0", "one"}
	for i, cell := range want {
		if rows[2][i] != cell {
			t.Fatalf("rows[2] = %v, want %v", rows[2], want)
		}
	}
}

func TestWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := Write(path, nil); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want header only", len(rows))
	}
}
