package capture

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestReaderReadAll(t *testing.T) {
	in := strings.NewReader(`
# comment

START
0, "Acc: 0.996 m/s^2"
10,"Lat:40.0"
20,""
`)

	recs, err := NewReader(in).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	want := []Record{
		{Start: true},
		{At: 0, Line: "Acc: 0.996 m/s^2"},
		{At: 10 * time.Nanosecond, Line: "Lat:40.0"},
		{At: 20 * time.Nanosecond, Line: ""},
	}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %#v, want %#v", recs, want)
	}
}

func TestReaderReadAll_InvalidLines(t *testing.T) {
	cases := map[string]string{
		"MissingComma":  "not-a-valid-line\n",
		"EmptyField":    "10,\n",
		"BadTimestamp":  "abc,\"x\"\n",
		"Negative":      "-5,\"x\"\n",
		"Unquoted":      "5,Lat:1\n",
		"UnterminatedQ": "5,\"Lat:1\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewReader(strings.NewReader(in)).ReadAll(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestWriter_WritesExpectedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	w, err := CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter() error: %v", err)
	}
	w.start = time.Unix(0, 0)

	if err := w.WriteLine(time.Unix(0, 20), "Alt: 6.515 ft"); err != nil {
		t.Fatalf("WriteLine() error: %v", err)
	}
	if err := w.WriteLine(time.Unix(0, 30), "tab\there"); err != nil {
		t.Fatalf("WriteLine() error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := w.WriteLine(time.Unix(0, 40), "late"); err == nil {
		t.Fatalf("expected error writing after Close")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(b) != "START\n20,\"Alt: 6.515 ft\"\n30,\"tab\\there\"\n" {
		t.Fatalf("unexpected file contents: %q", string(b))
	}
}

func TestRecordReplay_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")
	w, err := CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter() error: %v", err)
	}
	now := time.Now()
	in := []string{"Acc: 1 m/s^2", "Lat:1", "junk \"quoted\"", "Lng:2"}
	for _, l := range in {
		if err := w.WriteLine(now, l); err != nil {
			t.Fatalf("WriteLine() error: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	recs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	p, err := NewPlayer(recs, 1, false, &fakeSleeper{})
	if err != nil {
		t.Fatalf("NewPlayer() error: %v", err)
	}
	var out []string
	for {
		l, err := p.Next()
		if err != nil {
			break
		}
		out = append(out, l)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("lines = %q, want %q", out, in)
	}
}
