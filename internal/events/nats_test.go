package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/pipeliner-client/internal/events"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
)

var errConnClosed = errors.New("connection closed")

type fakeConn struct {
	mu          sync.Mutex
	msgs        []*nats.Msg
	flushes     int
	hadDeadline bool
	publishErr  error
}

func (c *fakeConn) PublishMsg(msg *nats.Msg) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.publishErr != nil {
		return c.publishErr
	}

	c.msgs = append(c.msgs, msg)

	return nil
}

func (c *fakeConn) FlushWithContext(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, c.hadDeadline = ctx.Deadline()
	c.flushes++

	return nil
}

func TestNATSPublisher_Publish(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	publisher := events.NewNATSPublisher(conn)

	event := crm.NewEntityEvent(crm.ActionBulkDeleted, "Account", "9", "10")

	err := publisher.Publish(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, conn.msgs, 1)
	msg := conn.msgs[0]
	assert.Equal(t, "pipeliner.entities.Account.bulk_deleted", msg.Subject)
	assert.Equal(t, event.ID, msg.Header.Get(nats.MsgIdHdr))
	assert.Equal(t, "application/json", msg.Header.Get("Content-Type"))
	assert.Zero(t, conn.flushes)

	var decoded crm.EntityEvent
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, crm.ActionBulkDeleted, decoded.Action)
	assert.Equal(t, []string{"9", "10"}, decoded.EntityIDs)
}

func TestNATSPublisher_Subject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       []events.Option
		entityType string
		action     crm.EntityAction
		want       string
	}{
		{
			name:       "default prefix",
			entityType: "Opportunity",
			action:     crm.ActionCreated,
			want:       "pipeliner.entities.Opportunity.created",
		},
		{
			name:       "custom prefix with trailing dot",
			opts:       []events.Option{events.WithSubjectPrefix("crm.eu.")},
			entityType: "Contact",
			action:     crm.ActionUpdated,
			want:       "crm.eu.Contact.updated",
		},
		{
			name:       "wildcards are replaced",
			entityType: "Odd.Type*",
			action:     crm.ActionDeleted,
			want:       "pipeliner.entities.Odd_Type_.deleted",
		},
		{
			name:   "empty type",
			action: crm.ActionDeleted,
			want:   "pipeliner.entities._.deleted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			publisher := events.NewNATSPublisher(&fakeConn{}, tt.opts...)
			assert.Equal(t, tt.want, publisher.Subject(crm.NewEntityEvent(tt.action, tt.entityType)))
		})
	}
}

func TestNATSPublisher_Flush(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	publisher := events.NewNATSPublisher(conn, events.WithFlush(true))

	err := publisher.Publish(context.Background(), crm.NewEntityEvent(crm.ActionCreated, "Lead", "L-1"))
	require.NoError(t, err)

	assert.Equal(t, 1, conn.flushes)
	assert.True(t, conn.hadDeadline)
}

func TestNATSPublisher_Errors(t *testing.T) {
	t.Parallel()

	publisher := events.NewNATSPublisher(&fakeConn{publishErr: errConnClosed})

	err := publisher.Publish(context.Background(), crm.NewEntityEvent(crm.ActionCreated, "Lead"))
	require.ErrorIs(t, err, errConnClosed)
	assert.Contains(t, err.Error(), "pipeliner.entities.Lead.created")

	err = publisher.Publish(context.Background(), nil)
	require.ErrorIs(t, err, events.ErrNilEvent)

	// Close is a no-op for connections it does not own.
	require.NoError(t, publisher.Close())
}

func TestConnect_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := events.Connect(nil)
	require.ErrorIs(t, err, events.ErrNATSURLRequired)

	_, err = events.Connect(&events.NATSConfig{Name: "cli"})
	require.ErrorIs(t, err, events.ErrNATSURLRequired)
}

func TestMemoryPublisher(t *testing.T) {
	t.Parallel()

	publisher := events.NewMemoryPublisher()
	sub := publisher.Subscribe(1)

	first := crm.NewEntityEvent(crm.ActionCreated, "Account", "A-1")
	second := crm.NewEntityEvent(crm.ActionUpdated, "Account", "A-1")

	require.NoError(t, publisher.Publish(context.Background(), first))
	// buffer full: dropped instead of blocking
	require.NoError(t, publisher.Publish(context.Background(), second))

	assert.Same(t, first, <-sub)

	require.NoError(t, publisher.Close())

	_, open := <-sub
	assert.False(t, open)

	late := publisher.Subscribe(1)
	_, open = <-late
	assert.False(t, open)

	require.ErrorIs(t, publisher.Publish(context.Background(), nil), events.ErrNilEvent)
}
