package deck

import (
	"strings"
	"testing"
)

func TestRead_HeaderAndRows(t *testing.T) {
	input := "Question;Answer;picture_front\nhola;hello;http://x/a.png\nadios;bye;\n"
	src, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(src.Header) != 3 || src.Header[2] != "picture_front" {
		t.Fatalf("header = %v", src.Header)
	}
	if len(src.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(src.Records))
	}
	if src.Records[0]["Answer"] != "hello" {
		t.Errorf("row 0 = %v", src.Records[0])
	}
	v, ok := src.Records[1]["picture_front"]
	if !ok || v != "" {
		t.Errorf("empty trailing cell should be present and empty, got %q (present=%v)", v, ok)
	}
}

func TestRead_ShortRowLeavesKeysAbsent(t *testing.T) {
	src, err := Read(strings.NewReader("Question;Answer;Note\nonly\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	rec := src.Records[0]
	if rec["Question"] != "only" {
		t.Errorf("Question = %q", rec["Question"])
	}
	if _, ok := rec["Answer"]; ok {
		t.Error("Answer should be absent for a short row")
	}
	if _, ok := rec["Note"]; ok {
		t.Error("Note should be absent for a short row")
	}
}

func TestRead_StripsBOM(t *testing.T) {
	src, err := Read(strings.NewReader("\ufeffQuestion;Answer\na;b\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !src.HasColumn("Question") {
		t.Errorf("header = %q", src.Header)
	}
}

func TestRead_QuotedDelimiter(t *testing.T) {
	src, err := Read(strings.NewReader("Question;Answer\n\"a;b\";c\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := src.Records[0]["Question"]; got != "a;b" {
		t.Errorf("Question = %q, want %q", got, "a;b")
	}
}

func TestRead_Empty(t *testing.T) {
	if _, err := Read(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestRead_HeaderOnly(t *testing.T) {
	src, err := Read(strings.NewReader("Question;Answer\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(src.Records) != 0 {
		t.Errorf("records = %d, want 0", len(src.Records))
	}
}
