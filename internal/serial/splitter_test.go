package serial

import (
	"reflect"
	"testing"
)

func feedAll(ls *lineSplitter, chunks [][]byte) []string {
	var lines []string
	for _, c := range chunks {
		lines = append(lines, ls.Feed(c)...)
	}
	return lines
}

func TestSplitterChunkBoundaryIndependence(t *testing.T) {
	stream := []byte("first line\r\nsecond\nthird one\r\npartial")
	want := []string{"first line", "second", "third one"}

	chunkings := [][][]byte{
		{stream},
		{stream[:1], stream[1:]},
		{stream[:11], stream[11:12], stream[12:]},
		{stream[:5], stream[5:20], stream[20:30], stream[30:]},
	}
	// Byte-at-a-time
	var single [][]byte
	for i := range stream {
		single = append(single, stream[i:i+1])
	}
	chunkings = append(chunkings, single)

	for i, chunks := range chunkings {
		got := feedAll(&lineSplitter{}, chunks)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("chunking %d: got %v, want %v", i, got, want)
		}
	}
}

func TestSplitterRetainsTrailingFragment(t *testing.T) {
	ls := &lineSplitter{}
	if lines := ls.Feed([]byte("abc")); len(lines) != 0 {
		t.Fatalf("expected no lines for fragment, got %v", lines)
	}
	lines := ls.Feed([]byte("def\n"))
	if len(lines) != 1 || lines[0] != "abcdef" {
		t.Fatalf("expected reassembled line, got %v", lines)
	}
}

func TestSplitterReplacesInvalidUTF8(t *testing.T) {
	ls := &lineSplitter{}
	lines := ls.Feed([]byte{'o', 'k', 0xff, 0xfe, '\n'})
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %v", lines)
	}
	if lines[0] != "ok�" {
		t.Errorf("expected replacement character, got %q", lines[0])
	}
}

func TestSplitterEmptyLines(t *testing.T) {
	ls := &lineSplitter{}
	lines := ls.Feed([]byte("\n\r\nx\n"))
	want := []string{"", "", "x"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("got %v, want %v", lines, want)
	}
}
