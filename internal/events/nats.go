// Package events publishes entity change events to NATS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
)

// Static errors for err113 compliance.
var (
	ErrNATSURLRequired = errors.New("NATS URL required for event publishing")
	ErrNilEvent        = errors.New("event is nil")
)

var _ crm.EventPublisher = (*NATSPublisher)(nil)

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
}

// NATSConfig configures a NATS connection for event publishing.
type NATSConfig struct {
	// URL is the NATS server URL, e.g. nats://localhost:4222
	URL string

	// Name identifies the connection on the server
	Name string

	// SubjectPrefix is prepended to every subject
	SubjectPrefix string

	// Token authenticates the connection when set
	Token string

	// Flush waits for the server to acknowledge every publish
	Flush bool
}

// NATSPublisher publishes crm.EntityEvents as JSON to
// <prefix>.<entity type>.<action>.
type NATSPublisher struct {
	conn   Conn
	prefix string
	flush  bool
	logger crm.Logger
}

// Option configures a NATSPublisher.
type Option func(*NATSPublisher)

// WithSubjectPrefix overrides the subject prefix.
func WithSubjectPrefix(prefix string) Option {
	return func(p *NATSPublisher) {
		p.prefix = strings.TrimSuffix(prefix, ".")
	}
}

// WithFlush makes Publish wait for the server to process the message.
func WithFlush(flush bool) Option {
	return func(p *NATSPublisher) {
		p.flush = flush
	}
}

// WithLogger sets the logger.
func WithLogger(logger crm.Logger) Option {
	return func(p *NATSPublisher) {
		p.logger = logger
	}
}

// NewNATSPublisher creates a publisher over an existing connection.
func NewNATSPublisher(conn Conn, opts ...Option) *NATSPublisher {
	p := &NATSPublisher{
		conn:   conn,
		prefix: constants.DefaultEventSubjectPrefix,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Connect dials NATS and returns a publisher owning the connection.
func Connect(config *NATSConfig, opts ...Option) (*NATSPublisher, error) {
	if config == nil || config.URL == "" {
		return nil, ErrNATSURLRequired
	}

	name := config.Name
	if name == "" {
		name = constants.DefaultEventClientName
	}

	natsOpts := []nats.Option{nats.Name(name)}
	if config.Token != "" {
		natsOpts = append(natsOpts, nats.Token(config.Token))
	}

	nc, err := nats.Connect(config.URL, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", config.URL, err)
	}

	if config.SubjectPrefix != "" {
		opts = append([]Option{WithSubjectPrefix(config.SubjectPrefix)}, opts...)
	}

	if config.Flush {
		opts = append([]Option{WithFlush(true)}, opts...)
	}

	return NewNATSPublisher(nc, opts...), nil
}

// Subject returns the subject an event is published on.
func (p *NATSPublisher) Subject(event *crm.EntityEvent) string {
	return p.prefix + "." + subjectToken(event.EntityType) + "." + subjectToken(string(event.Action))
}

// Publish implements crm.EventPublisher.
func (p *NATSPublisher) Publish(ctx context.Context, event *crm.EntityEvent) error {
	if event == nil {
		return ErrNilEvent
	}

	msg, err := p.message(event)
	if err != nil {
		return err
	}

	err = p.conn.PublishMsg(msg)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", msg.Subject, err)
	}

	if p.flush {
		err = p.flushConn(ctx)
		if err != nil {
			return fmt.Errorf("flushing %s: %w", msg.Subject, err)
		}
	}

	if p.logger != nil {
		p.logger.Debug("Entity event published", map[string]interface{}{
			"subject":  msg.Subject,
			"event_id": event.ID,
			"entities": len(event.EntityIDs),
		})
	}

	return nil
}

// Close drains the connection when the publisher owns a *nats.Conn.
func (p *NATSPublisher) Close() error {
	nc, ok := p.conn.(*nats.Conn)
	if !ok {
		return nil
	}

	err := nc.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}

func (p *NATSPublisher) message(event *crm.EntityEvent) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", event.Action, err)
	}

	msg := nats.NewMsg(p.Subject(event))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	msg.Header.Set("Content-Type", "application/json")

	return msg, nil
}

// flushConn needs a deadline; nats rejects contexts without one.
func (p *NATSPublisher) flushConn(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, constants.DefaultEventFlushTimeout)
		defer cancel()
	}

	return p.conn.FlushWithContext(ctx)
}

// subjectToken keeps a name usable as a single subject token.
func subjectToken(name string) string {
	if name == "" {
		return "_"
	}

	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		default:
			return r
		}
	}, name)
}
