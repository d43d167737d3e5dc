package speech

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

type line struct {
	text string
	err  error
}

// LineListener reads one utterance per line, e.g. from stdin.
type LineListener struct {
	r     io.Reader
	once  sync.Once
	lines chan line
}

func NewLineListener(r io.Reader) *LineListener {
	return &LineListener{r: r, lines: make(chan line)}
}

func (l *LineListener) scan() {
	sc := bufio.NewScanner(l.r)
	for sc.Scan() {
		l.lines <- line{text: sc.Text()}
	}
	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	l.lines <- line{err: err}
	close(l.lines)
}

// Listen returns the next non blank line. The reader goroutine starts on
// the first call and exits once the reader hits EOF.
func (l *LineListener) Listen(ctx context.Context) (string, error) {
	l.once.Do(func() { go l.scan() })

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ln, ok := <-l.lines:
			if !ok {
				return "", io.EOF
			}
			if ln.err != nil {
				return "", ln.err
			}
			if text := strings.TrimSpace(ln.text); text != "" {
				return text, nil
			}
		}
	}
}
