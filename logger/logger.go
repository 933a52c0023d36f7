// Package logger provides a plain TextFormatter for the
// github.com/sirupsen/logrus library.
// See https://github.com/sirupsen/logrus#formatters for general usage
// guidelines on logrus formatters.
package logger

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTimestampFormat = time.RFC3339

// TextFormatter renders entries as `<time> [LEVEL] message key=value ...`.
type TextFormatter struct {
	// Disable timestamp logging. useful when output is redirected to a
	// logging system that already adds timestamps.
	DisableTimestamp bool

	// Timestamp format to use for display. See https://golang.org/pkg/time/.
	TimestampFormat string
}

// Format renders a single log entry.
// It is meant to be called from github.com/sirupsen/logrus.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	if !f.DisableTimestamp {
		format := f.TimestampFormat
		if format == "" {
			format = defaultTimestampFormat
		}
		b.WriteString(entry.Time.Format(format))
		b.WriteByte(' ')
	}

	b.WriteByte('[')
	b.WriteString(strings.ToUpper(entry.Level.String()))
	b.WriteByte(']')
	b.WriteByte(' ')

	b.WriteString(entry.Message)

	// fields are sorted for a consistent output
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		appendValue(b, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func appendValue(b *bytes.Buffer, value interface{}) {
	text, ok := value.(string)
	if !ok {
		if err, isErr := value.(error); isErr {
			text = err.Error()
		} else {
			fmt.Fprint(b, value)
			return
		}
	}
	if needsQuoting(text) {
		fmt.Fprintf(b, "%q", text)
	} else {
		b.WriteString(text)
	}
}

func needsQuoting(text string) bool {
	if len(text) == 0 {
		return true
	}
	for _, ch := range text {
		if !((ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '-' || ch == '.') {
			return true
		}
	}
	return false
}
