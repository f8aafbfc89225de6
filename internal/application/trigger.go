package application

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// Trigger blocks until the user asks for a new turn.
type Trigger interface {
	Wait(ctx context.Context) error
}

type NoopTrigger struct{}

func (n *NoopTrigger) Wait(ctx context.Context) error {
	return ctx.Err()
}

// LineTrigger waits for a line on r, typically Enter on stdin.
type LineTrigger struct {
	r      io.Reader
	out    io.Writer
	prompt string

	once  sync.Once
	lines chan struct{}
	done  chan struct{}
	err   error
}

func NewLineTrigger(r io.Reader, out io.Writer, prompt string) *LineTrigger {
	return &LineTrigger{
		r:      r,
		out:    out,
		prompt: prompt,
		lines:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (l *LineTrigger) Wait(ctx context.Context) error {
	l.once.Do(func() { go l.scan() })

	if l.out != nil && l.prompt != "" {
		fmt.Fprintln(l.out, l.prompt)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.lines:
		return nil
	case <-l.done:
		return l.err
	}
}

func (l *LineTrigger) scan() {
	scanner := bufio.NewScanner(l.r)
	for scanner.Scan() {
		l.lines <- struct{}{}
	}
	if err := scanner.Err(); err != nil {
		l.err = fmt.Errorf("reading trigger: %w", err)
	} else {
		l.err = io.EOF
	}
	close(l.done)
}
