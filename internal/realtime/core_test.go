package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/model"
	"github.com/qius-alx/social-network/internal/repository"
	"github.com/qius-alx/social-network/internal/repository/sqlite"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

type fakeClient struct {
	id      string
	profile model.Profile

	mu     sync.Mutex
	frames []Envelope
	closed bool
}

func newFakeClient(id string, p model.Profile) *fakeClient {
	return &fakeClient{id: id, profile: p}
}

func (f *fakeClient) ID() string             { return f.id }
func (f *fakeClient) Profile() model.Profile { return f.profile }

func (f *fakeClient) Send(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrConnClosed
	}
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return err
	}
	f.frames = append(f.frames, env)
	return nil
}

func (f *fakeClient) received(eventType string) []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Envelope
	for _, e := range f.frames {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeClient) lastError(t *testing.T) errorPayload {
	t.Helper()
	errs := f.received(EventMessageError)
	require.NotEmpty(t, errs, "expected a messageError")
	var p errorPayload
	require.NoError(t, json.Unmarshal(errs[len(errs)-1].Payload, &p))
	return p
}

type fakeDirectory struct {
	profiles map[string]model.Profile
}

func (d *fakeDirectory) Profile(_ context.Context, id string) (*model.Profile, error) {
	p, ok := d.profiles[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &p, nil
}

// brokenStore fails every write.
type brokenStore struct {
	repository.MessageRepository
}

func (brokenStore) CreateGlobalMessage(context.Context, *model.GlobalMessage) error {
	return errors.New("disk on fire")
}

func (brokenStore) CreatePrivateMessage(context.Context, *model.PrivateMessage) error {
	return errors.New("disk on fire")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fixture struct {
	core  *Core
	db    *sqlite.DB
	dir   *fakeDirectory
	alice model.Profile
	bob   model.Profile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dir := &fakeDirectory{profiles: map[string]model.Profile{}}
	f := &fixture{db: db, dir: dir}
	for _, name := range []string{"alice", "bob"} {
		u := &model.User{Username: name, Email: name + "@example.com", ProfilePicture: name + ".png"}
		require.NoError(t, db.CreateUser(context.Background(), u))
		dir.profiles[u.ID] = u.Profile()
	}
	for _, p := range dir.profiles {
		if p.Username == "alice" {
			f.alice = p
		} else {
			f.bob = p
		}
	}
	f.core = NewCore(db, dir, NewPresence(), testLogger())
	return f
}

func (f *fixture) connect(id string, p model.Profile) *fakeClient {
	c := newFakeClient(id, p)
	f.core.Connect(c)
	return c
}

func decode[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}

func frame(t *testing.T, eventType string, payload any) []byte {
	t.Helper()
	b, err := encode(eventType, payload)
	require.NoError(t, err)
	return b
}

// =========================================================================
// GLOBAL
// =========================================================================

func TestSendGlobal_BroadcastsToEveryoneIncludingSender(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)
	ctx := context.Background()

	require.NoError(t, f.core.SendGlobal(ctx, a, "  hi  "))

	for _, c := range []*fakeClient{a, b} {
		got := c.received(EventNewGlobalMessage)
		require.Len(t, got, 1)
		msg := decode[model.GlobalMessageView](t, got[0])
		assert.Equal(t, "hi", msg.Content)
		assert.Equal(t, "alice", msg.Sender.Username)
		assert.Equal(t, model.GlobalRoom, msg.RoomID)
	}

	history, err := f.db.ListGlobalMessages(ctx, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Content)
}

func TestSendGlobal_SenderProfileResolvedAfterPersist(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)
	ctx := context.Background()

	// alice changes her picture after the handshake
	pic := "new.png"
	_, err := f.db.UpdateProfile(ctx, f.alice.ID, repository.ProfileUpdate{ProfilePicture: &pic})
	require.NoError(t, err)
	updated := f.alice
	updated.ProfilePicture = pic
	f.dir.profiles[f.alice.ID] = updated

	require.NoError(t, f.core.SendGlobal(ctx, a, "hi"))
	require.NoError(t, f.core.SendPrivate(ctx, a, f.bob.ID, "yo"))

	live := decode[model.GlobalMessageView](t, b.received(EventNewGlobalMessage)[0])
	assert.Equal(t, updated, live.Sender)
	private := decode[model.PrivateMessageView](t, b.received(EventNewPrivateMessage)[0])
	assert.Equal(t, updated, private.Sender)

	history, err := f.db.ListGlobalMessages(ctx, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, history[0].Sender, live.Sender)
}

func TestSendGlobal_DirectoryFailureFallsBackToConnectionProfile(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	delete(f.dir.profiles, f.alice.ID)

	require.NoError(t, f.core.SendGlobal(context.Background(), a, "hi"))

	got := a.received(EventNewGlobalMessage)
	require.Len(t, got, 1)
	assert.Equal(t, f.alice, decode[model.GlobalMessageView](t, got[0]).Sender)
}

func TestSendGlobal_EmptyContent(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	for _, content := range []string{"", "   ", "\n\t"} {
		err := f.core.SendGlobal(context.Background(), a, content)
		assert.Equal(t, apperror.CodeInvalidContent, apperror.CodeOf(err))
	}

	assert.Zero(t, b.count())
	history, err := f.db.ListGlobalMessages(context.Background(), repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSendGlobal_PersistenceFailureNoBroadcast(t *testing.T) {
	f := newFixture(t)
	f.core = NewCore(brokenStore{}, &fakeDirectory{}, NewPresence(), testLogger())
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	f.core.Dispatch(context.Background(), a, frame(t, EventGlobalMessage, map[string]string{"content": "hi"}))

	p := a.lastError(t)
	assert.Equal(t, string(apperror.CodePersistence), p.Code)
	assert.Equal(t, "Failed to send global message due to server error.", p.Message)
	assert.NotContains(t, p.Message, "disk")
	assert.Zero(t, b.count())
}

// =========================================================================
// PRIVATE
// =========================================================================

func TestSendPrivate_DeliversToSenderAndOnlineReceiver(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	require.NoError(t, f.core.SendPrivate(context.Background(), a, f.bob.ID, "yo"))

	for _, c := range []*fakeClient{a, b} {
		got := c.received(EventNewPrivateMessage)
		require.Len(t, got, 1)
		msg := decode[model.PrivateMessageView](t, got[0])
		assert.Equal(t, "yo", msg.Content)
		assert.Equal(t, f.alice, msg.Sender)
		assert.Equal(t, f.bob, msg.Receiver)
		assert.False(t, msg.IsRead)
	}
}

func TestSendPrivate_OfflineReceiverStillPersisted(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	ctx := context.Background()

	require.NoError(t, f.core.SendPrivate(ctx, a, f.bob.ID, "yo"))
	assert.Len(t, a.received(EventNewPrivateMessage), 1)

	conv, err := f.db.ListConversation(ctx, f.bob.ID, f.alice.ID, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, conv, 1)
	assert.False(t, conv[0].IsRead)
}

func TestSendPrivate_Rejections(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	tests := []struct {
		name     string
		receiver string
		content  string
		want     apperror.Code
	}{
		{"empty content", f.bob.ID, "  ", apperror.CodeInvalidContent},
		{"malformed receiver", "bob", "hi", apperror.CodeInvalidReceiver},
		{"missing receiver", "", "hi", apperror.CodeInvalidReceiver},
		{"self", f.alice.ID, "hi", apperror.CodeSelfMessageNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.core.SendPrivate(context.Background(), a, tt.receiver, tt.content)
			assert.Equal(t, tt.want, apperror.CodeOf(err))
		})
	}

	assert.Zero(t, a.count())
	assert.Zero(t, b.count())
	conv, err := f.db.ListConversation(context.Background(), f.alice.ID, f.alice.ID, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, conv)
}

func TestSendPrivate_AfterDisconnectReceiverIsAbsent(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	f.core.Disconnect(b)
	assert.False(t, f.core.Online(f.bob.ID))

	require.NoError(t, f.core.SendPrivate(context.Background(), a, f.bob.ID, "yo"))
	assert.Zero(t, b.count())
}

func TestSendPrivate_StaleReceiverHandleIsDropped(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)
	ctx := context.Background()

	// bob's socket died but presence still points at it
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	require.True(t, f.core.Online(f.bob.ID))

	require.NoError(t, f.core.SendPrivate(ctx, a, f.bob.ID, "yo"))
	sent := a.received(EventNewPrivateMessage)
	require.Len(t, sent, 1)
	id := decode[model.PrivateMessageView](t, sent[0]).ID

	stored, err := f.db.GetPrivateMessage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "yo", stored.Content)
	assert.Zero(t, b.count())
	assert.Empty(t, a.received(EventMessageError))
}

func TestMarkRead_StaleSenderHandleIsDropped(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)
	id := sendTo(t, f, a, f.bob)
	ctx := context.Background()

	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	require.NoError(t, f.core.MarkRead(ctx, b, id, f.bob.ID))
	assert.Len(t, b.received(EventMessageRead), 1)
	assert.Empty(t, a.received(EventMessageRead))

	stored, err := f.db.GetPrivateMessage(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
}

func TestDispatch_NonStringPayloadFieldsFailValidation(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)

	f.core.Dispatch(context.Background(), a, []byte(`{"type":"privateMessage","payload":{"receiverId":"`+f.bob.ID+`","content":42}}`))
	assert.Equal(t, string(apperror.CodeInvalidContent), a.lastError(t).Code)

	f.core.Dispatch(context.Background(), a, []byte(`{"type":"privateMessage","payload":{"receiverId":{"id":1},"content":"hi"}}`))
	assert.Equal(t, string(apperror.CodeInvalidReceiver), a.lastError(t).Code)

	// payloads that are not objects at all
	f.core.Dispatch(context.Background(), a, []byte(`{"type":"globalMessage","payload":"hi"}`))
	assert.Equal(t, string(apperror.CodeInvalidContent), a.lastError(t).Code)

	f.core.Dispatch(context.Background(), a, []byte(`{"type":"markAsRead","payload":[1,2]}`))
	assert.Equal(t, string(apperror.CodeInvalidMessageID), a.lastError(t).Code)
}

func TestDispatch_UnknownAndMalformed(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)

	f.core.Dispatch(context.Background(), a, []byte(`{"type":"dance"}`))
	f.core.Dispatch(context.Background(), a, []byte(`not json`))

	assert.Len(t, a.received(EventMessageError), 2)
}

// =========================================================================
// READ RECEIPTS
// =========================================================================

func sendTo(t *testing.T, f *fixture, from *fakeClient, to model.Profile) string {
	t.Helper()
	require.NoError(t, f.core.SendPrivate(context.Background(), from, to.ID, "ping"))
	got := from.received(EventNewPrivateMessage)
	return decode[model.PrivateMessageView](t, got[len(got)-1]).ID
}

func TestMarkRead_NotifiesSenderAndReaderOnce(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)
	id := sendTo(t, f, a, f.bob)
	ctx := context.Background()

	require.NoError(t, f.core.MarkRead(ctx, b, id, f.bob.ID))

	for _, c := range []*fakeClient{a, b} {
		got := c.received(EventMessageRead)
		require.Len(t, got, 1)
		assert.Equal(t, model.ReadReceipt{MessageID: id, ReaderID: f.bob.ID}, decode[model.ReadReceipt](t, got[0]))
	}

	stored, err := f.db.GetPrivateMessage(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)

	// Second call: status only, no duplicate receipt.
	require.NoError(t, f.core.MarkRead(ctx, b, id, f.bob.ID))
	assert.Len(t, a.received(EventMessageRead), 1)
	status := b.received(EventMessageStatus)
	require.Len(t, status, 1)
	assert.Equal(t, statusPayload{MessageID: id, Status: StatusAlreadyRead}, decode[statusPayload](t, status[0]))
}

func TestMarkRead_SenderOffline(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)
	id := sendTo(t, f, a, f.bob)
	f.core.Disconnect(a)

	require.NoError(t, f.core.MarkRead(context.Background(), b, id, f.bob.ID))
	assert.Len(t, b.received(EventMessageRead), 1)
	assert.Empty(t, a.received(EventMessageRead))
}

func TestMarkRead_Rejections(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)
	id := sendTo(t, f, a, f.bob)
	ctx := context.Background()

	tests := []struct {
		name      string
		client    *fakeClient
		messageID string
		readerID  string
		want      apperror.Code
	}{
		{"malformed message id", b, "nope", f.bob.ID, apperror.CodeInvalidMessageID},
		{"spoofed reader", b, id, f.alice.ID, apperror.CodeAuthorization},
		{"malformed reader", b, id, "", apperror.CodeAuthorization},
		{"unknown message", b, "cv37rs3pp9olc6atsptg", f.bob.ID, apperror.CodeNotFound},
		{"sender is not receiver", a, id, f.alice.ID, apperror.CodeNotReceiver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.core.MarkRead(ctx, tt.client, tt.messageID, tt.readerID)
			assert.Equal(t, tt.want, apperror.CodeOf(err))
		})
	}

	stored, err := f.db.GetPrivateMessage(ctx, id)
	require.NoError(t, err)
	assert.False(t, stored.IsRead)
	assert.Empty(t, a.received(EventMessageRead))
}

func TestMarkRead_ConcurrentCallsTransitionOnce(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)
	id := sendTo(t, f, a, f.bob)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.core.MarkRead(context.Background(), b, id, f.bob.ID)
		}()
	}
	wg.Wait()

	assert.Len(t, a.received(EventMessageRead), 1)
	assert.Len(t, b.received(EventMessageRead), 1)
	assert.Len(t, b.received(EventMessageStatus), 7)
}

func TestNotifyRead(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a", f.alice)

	f.core.NotifyRead(context.Background(), f.alice.ID, model.ReadReceipt{MessageID: "m", ReaderID: f.bob.ID})
	f.core.NotifyRead(context.Background(), f.bob.ID, model.ReadReceipt{MessageID: "m", ReaderID: f.alice.ID})

	assert.Len(t, a.received(EventMessageRead), 1)
}
