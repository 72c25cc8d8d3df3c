package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrProducerClosed = errors.New("producer closed")

const writeTimeout = 10 * time.Second

// MessageWriter is satisfied by the traced writer from NewTracedWriter.
type MessageWriter interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

type outgoing struct {
	span trace.SpanContext
	msg  kafka.Message
}

// Producer buffers messages in an inbox and writes them from one goroutine.
// The caller's span context travels with each message so the write is traced
// under the request that produced it.
type Producer struct {
	w      MessageWriter
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	inbox  chan outgoing
	done   chan struct{}
	once   sync.Once
}

func NewProducer(w MessageWriter, buf int, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{
		w:      w,
		logger: logger,
		inbox:  make(chan outgoing, buf),
		done:   make(chan struct{}),
	}
}

// Start runs the write loop until Close drains the inbox.
func (p *Producer) Start() {
	go func() {
		defer close(p.done)
		for o := range p.inbox {
			p.write(o)
		}
		if err := p.w.Close(); err != nil {
			p.logger.Error("failed to close kafka writer", zap.Error(err))
		}
	}()
}

func (p *Producer) write(o outgoing) {
	ctx := trace.ContextWithSpanContext(context.Background(), o.span)
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.w.WriteMessage(ctx, o.msg); err != nil {
		p.logger.Error("failed to write message",
			zap.String("key", string(o.msg.Key)),
			zap.Error(err),
		)
	}
}

// Enqueue blocks only while the inbox is full.
func (p *Producer) Enqueue(ctx context.Context, m kafka.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrProducerClosed
	}
	if m.Time.IsZero() {
		m.Time = time.Now()
	}

	select {
	case p.inbox <- outgoing{span: trace.SpanContextFromContext(ctx), msg: m}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting messages, flushes what is buffered and waits for the
// writer to close. Start must have been called.
func (p *Producer) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.inbox)
		p.mu.Unlock()
	})
	<-p.done
}
