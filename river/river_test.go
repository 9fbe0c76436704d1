package river

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/riverkit/message"
	"github.com/c360/riverkit/validation"
)

// fakeConn records publishes and delivers subscribed handlers for tests.
type fakeConn struct {
	published map[string][][]byte
	handlers  map[string]func(context.Context, []byte)
	subErr    error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		published: make(map[string][][]byte),
		handlers:  make(map[string]func(context.Context, []byte)),
	}
}

func (c *fakeConn) Publish(_ context.Context, subject string, data []byte) error {
	c.published[subject] = append(c.published[subject], data)
	return nil
}

func (c *fakeConn) Subscribe(_ context.Context, subject string, handler func(context.Context, []byte)) error {
	if c.subErr != nil {
		return c.subErr
	}
	c.handlers[subject] = handler
	return nil
}

func (c *fakeConn) deliver(subject string, data []byte) {
	c.handlers[subject](context.Background(), data)
}

// publishOnlyConn implements Connection without Subscribe.
type publishOnlyConn struct{}

func (publishOnlyConn) Publish(_ context.Context, _ string, _ []byte) error {
	return nil
}

// recordingListener captures dispatch calls in order.
type recordingListener struct {
	name    string
	order   *[]string
	packets []message.Payload
	plogs   []*validation.ProblemLog
	errors  []*validation.ProblemLog
}

func (l *recordingListener) OnPacket(_ Connection, packet message.Payload, plog *validation.ProblemLog) {
	if l.order != nil {
		*l.order = append(*l.order, l.name+":packet")
	}
	l.packets = append(l.packets, packet)
	l.plogs = append(l.plogs, plog)
}

func (l *recordingListener) OnError(_ Connection, plog *validation.ProblemLog) {
	if l.order != nil {
		*l.order = append(*l.order, l.name+":error")
	}
	l.errors = append(l.errors, plog)
}

func handle(r *River, raw string) {
	r.HandleMessage(context.Background(), []byte(raw))
}

func TestRiver_SuccessDispatch(t *testing.T) {
	listener := &recordingListener{}
	r := New(newFakeConn()).
		Require("type").
		RequireValue("type", "drawcard").
		Register(listener)

	handle(r, `{"type":"drawcard"}`)

	require.Len(t, listener.packets, 1)
	assert.Empty(t, listener.errors)

	packet := listener.packets[0]
	assert.Equal(t, "drawcard", packet["type"])
	assert.Equal(t, 1, packet.ReadCount())

	plog := listener.plogs[0]
	assert.False(t, plog.HasErrors())
	assert.Equal(t, []string{"Required key 'type' actually exists"}, plog.InformationEntries())
}

func TestRiver_ReadCountIncrementsExistingValue(t *testing.T) {
	listener := &recordingListener{}
	r := New(newFakeConn()).
		Require("type").
		RequireValue("type", "drawcard").
		Register(listener)

	handle(r, `{"type":"drawcard","system_read_count":5}`)

	require.Len(t, listener.packets, 1)
	assert.Equal(t, 6, listener.packets[0].ReadCount())
}

func TestRiver_ReadCountResetsNonInteger(t *testing.T) {
	listener := &recordingListener{}
	r := New(newFakeConn()).Register(listener)

	handle(r, `{"system_read_count":"bogus"}`)

	require.Len(t, listener.packets, 1)
	assert.Equal(t, 1, listener.packets[0].ReadCount())
}

func TestRiver_ParseFailureRoutesToErrorDispatch(t *testing.T) {
	listener := &recordingListener{}
	r := New(newFakeConn()).Require("type").Register(listener)

	handle(r, "not json")

	assert.Empty(t, listener.packets, "success dispatch must not run")
	require.Len(t, listener.errors, 1)

	plog := listener.errors[0]
	assert.True(t, plog.AreSevere())
	assert.Equal(t, []string{"invalid message format"}, plog.SevereEntries())
	assert.Empty(t, plog.ErrorEntries(), "rules must not run after parse failure")
	assert.Equal(t, "not json", plog.Raw())
}

func TestRiver_NonObjectDocumentCarriesDescription(t *testing.T) {
	listener := &recordingListener{}
	r := New(newFakeConn()).Register(listener)

	handle(r, `[1,2,3]`)

	require.Len(t, listener.errors, 1)
	plog := listener.errors[0]
	require.Len(t, plog.SevereEntries(), 1)
	assert.Contains(t, plog.SevereEntries()[0], "message parsing failed")
}

func TestRiver_MissingRequiredKeys(t *testing.T) {
	listener := &recordingListener{}
	r := New(newFakeConn()).Require("a", "b").Register(listener)

	handle(r, `{}`)

	assert.Empty(t, listener.packets)
	require.Len(t, listener.errors, 1)
	assert.Equal(t, []string{
		"Missing required key 'a'",
		"Missing required key 'b'",
	}, listener.errors[0].ErrorEntries())
	assert.False(t, listener.errors[0].AreSevere())
}

func TestRiver_ForbiddenKeyPresent(t *testing.T) {
	listener := &recordingListener{}
	r := New(newFakeConn()).Forbid("admin").Register(listener)

	handle(r, `{"admin":true}`)

	require.Len(t, listener.errors, 1)
	assert.Equal(t, []string{"Forbidden key 'admin' exists"}, listener.errors[0].ErrorEntries())
}

func TestRiver_DuplicateRulesAccumulate(t *testing.T) {
	listener := &recordingListener{}
	r := New(newFakeConn()).Require("type").Require("type").Register(listener)

	handle(r, `{"type":"drawcard"}`)

	require.Len(t, listener.packets, 1)
	assert.Equal(t, []string{
		"Required key 'type' actually exists",
		"Required key 'type' actually exists",
	}, listener.plogs[0].InformationEntries())
}

func TestRiver_SevereShortCircuitsRemainingRules(t *testing.T) {
	listener := &recordingListener{}
	r := New(newFakeConn()).
		AddRule(validation.RuleFunc(func(_ message.Payload, plog *validation.ProblemLog) {
			plog.SevereError("poison message")
		})).
		Require("type").
		Register(listener)

	handle(r, `{"type":"drawcard"}`)

	require.Len(t, listener.errors, 1)
	plog := listener.errors[0]
	assert.Equal(t, []string{"poison message"}, plog.SevereEntries())
	assert.Empty(t, plog.InformationEntries(), "later rules must contribute nothing")
	assert.Empty(t, plog.ErrorEntries())
}

func TestRiver_ListenersNotifiedInRegistrationOrder(t *testing.T) {
	var order []string
	first := &recordingListener{name: "first", order: &order}
	second := &recordingListener{name: "second", order: &order}

	r := New(newFakeConn()).Register(first).Register(second)

	handle(r, `{"type":"drawcard"}`)
	assert.Equal(t, []string{"first:packet", "second:packet"}, order)

	order = order[:0]
	handle(r, "not json")
	assert.Equal(t, []string{"first:error", "second:error"}, order)
}

func TestRiver_PanickingRuleIsContained(t *testing.T) {
	listener := &recordingListener{}
	r := New(newFakeConn()).
		AddRule(validation.RuleFunc(func(_ message.Payload, _ *validation.ProblemLog) {
			panic("rule bug")
		})).
		Register(listener)

	assert.NotPanics(t, func() {
		handle(r, `{"type":"drawcard"}`)
	})
}

func TestRiver_RequireSchema(t *testing.T) {
	listener := &recordingListener{}
	r, err := New(newFakeConn()).
		RequireSchema(`{"type":"object","required":["type"]}`)
	require.NoError(t, err)
	r.Register(listener)

	handle(r, `{"count":1}`)

	require.Len(t, listener.errors, 1)
	require.Len(t, listener.errors[0].ErrorEntries(), 1)
	assert.Contains(t, listener.errors[0].ErrorEntries()[0], "Schema violation:")

	handle(r, `{"type":"drawcard"}`)
	require.Len(t, listener.packets, 1)
}

func TestRiver_RequireSchema_CompileError(t *testing.T) {
	_, err := New(newFakeConn()).RequireSchema(`{"type": "not-a-type"`)
	assert.Error(t, err)
}

func TestRiver_Bind(t *testing.T) {
	conn := newFakeConn()
	listener := &recordingListener{}
	r := New(conn).Require("type").Register(listener)

	require.NoError(t, r.Bind(context.Background(), "game.moves", "game.chat"))
	require.Contains(t, conn.handlers, "game.moves")
	require.Contains(t, conn.handlers, "game.chat")

	conn.deliver("game.moves", []byte(`{"type":"drawcard"}`))
	require.Len(t, listener.packets, 1)
	assert.Equal(t, 1, listener.packets[0].ReadCount())
}

func TestRiver_Bind_PublishOnlyConnection(t *testing.T) {
	r := New(publishOnlyConn{})
	err := r.Bind(context.Background(), "game.moves")
	assert.Error(t, err)
}

func TestRiver_BuilderCounts(t *testing.T) {
	r := New(newFakeConn()).
		Require("a").
		Forbid("b").
		RequireValue("c", "v")

	assert.Equal(t, 3, r.Rules())
}
