package input

import (
	"io"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		line string
		want Triple
		ok   bool
	}{
		{"0\top\tPUSH1", Triple{0, "op", "PUSH1"}, true},
		{"17\tgasCost\t2600", Triple{17, "gasCost", "2600"}, true},
		{"3\tvalue\ta\tb", Triple{3, "value", "a\tb"}, true}, // tabs in value
		{"0\top", Triple{}, false},
		{"op\t0\tPUSH1", Triple{}, false},
		{"", Triple{}, false},
	}
	for _, c := range cases {
		got, err := ParseLine(c.line)
		if c.ok != (err == nil) {
			t.Fatalf("ParseLine(%q): expected ok=%t, got err=%v", c.line, c.ok, err)
		}
		if c.ok && got != c.want {
			t.Fatalf("ParseLine(%q): expected %v, got %v", c.line, c.want, got)
		}
	}
}

func TestStatic(t *testing.T) {
	src := NewStatic(
		Triple{0, "op", "ADD"},
		Triple{0, "gasCost", "3"},
	)
	var n int
	for {
		_, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 2 {
		t.Fatalf("expected 2 triples, got %d", n)
	}
}

func TestStaticErr(t *testing.T) {
	src := NewStatic(Triple{0, "op", "ADD"})
	src.Err = &ProcessError{Code: 5, Stderr: "parse error"}
	if _, err := src.Next(); err != nil {
		t.Fatalf("expected first triple, got %s", err)
	}
	_, err := src.Next()
	perr, ok := err.(*ProcessError)
	if !ok {
		t.Fatalf("expected *ProcessError, got %T %v", err, err)
	}
	if perr.Code != 5 {
		t.Fatalf("expected code 5, got %d", perr.Code)
	}
}

func TestProcessErrorMessage(t *testing.T) {
	err := &ProcessError{Code: 2, Stderr: "jq: error: boom\n"}
	msg := err.Error()
	if !strings.Contains(msg, "code 2") || !strings.Contains(msg, "boom") {
		t.Fatalf("unexpected message %q", msg)
	}
	bare := &ProcessError{Code: 1}
	if bare.Error() != "tokenizer exited with code 1" {
		t.Fatalf("unexpected message %q", bare.Error())
	}
}
