package cli

import (
	"bufio"
	"context"
	"io"
	"sync"
)

// lineReader serializes access to one input stream. A single background
// goroutine reads lines into a channel; the REPL and the confirmation
// prompter both consume from it. A prompt that expires therefore never
// holds a pending read on stdin: whatever the user types next is
// delivered to whoever asks next, not swallowed by a dead prompt.
type lineReader struct {
	src   io.Reader
	once  sync.Once
	lines chan string
	errCh chan error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		src:   r,
		lines: make(chan string),
		errCh: make(chan error, 1),
	}
}

func (l *lineReader) start() {
	go func() {
		scanner := bufio.NewScanner(l.src)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			l.lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			l.errCh <- err
		} else {
			l.errCh <- io.EOF
		}
	}()
}

// ReadLine returns the next input line without its terminator. A
// context expiry abandons the wait, not the line: the line stays queued
// for the next caller. After the stream ends every call reports the
// same terminal error.
func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	l.once.Do(l.start)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line := <-l.lines:
		return line, nil
	case err := <-l.errCh:
		l.errCh <- err
		return "", err
	}
}
