package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/babelforce/rtvi-go"
	"github.com/babelforce/rtvi-go/daily"
	"github.com/babelforce/rtvi-go/proto"
	"github.com/babelforce/rtvi-go/rtvitest"
)

const (
	localUUID = "6c1f3f4e-2d0a-4f0e-8b6e-000000000001"
	botUUID   = "6c1f3f4e-2d0a-4f0e-8b6e-000000000002"
)

func dialFake(t *testing.T, f *fakeSidecar, requestTimeout time.Duration) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, Config{URL: f.url(), RequestTimeout: requestTimeout})
	require.NoError(t, err)
	return c
}

func nextEvent(t *testing.T, c *Client) daily.Event {
	t.Helper()
	select {
	case evt, ok := <-c.Events():
		require.True(t, ok, "events closed")
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func botWire(micState daily.MediaState) wireParticipant {
	return wireParticipant{
		ID:       botUUID,
		Username: "bot",
		Media: &wireMedia{
			Microphone: wireTrack{State: micState, TrackID: "bot-mic"},
			Camera:     wireTrack{State: daily.MediaStateOff},
		},
	}
}

func TestDialLoadsCallState(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	f.handle("call.state", func(*proto.Request) (any, *proto.ResponseError) {
		return callSnapshot{
			Participants: []wireParticipant{{ID: localUUID, Username: "me", Local: true}},
			Devices: &daily.Devices{
				Microphone: []daily.Device{{DeviceID: "mic-1", Label: "Built-in", Kind: "audio"}},
			},
			Inputs: &daily.InputSettings{Microphone: daily.InputSetting{IsEnabled: true, DeviceID: "mic-1"}},
		}, nil
	})

	c := dialFake(t, f, time.Second)
	defer c.Close()

	participants := c.Participants()
	require.NotNil(t, participants.Local)
	require.Equal(t, localUUID, participants.Local.ID.String())
	require.True(t, participants.Local.Info.IsLocal)
	require.Empty(t, participants.Remote)

	require.Len(t, c.AvailableDevices().Microphone, 1)
	require.Equal(t, "mic-1", c.Inputs().Microphone.DeviceID)
	require.True(t, c.Inputs().Microphone.IsEnabled)
}

func TestDialFailsOnCallStateError(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	f.handle("call.state", func(*proto.Request) (any, *proto.ResponseError) {
		return nil, proto.NewError(proto.CodeInternal, errors.New("no call client"))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Dial(ctx, Config{URL: f.url()})
	var re *proto.ResponseError
	require.ErrorAs(t, err, &re)
	require.Equal(t, proto.CodeInternal, re.Code)
}

func TestJoin(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	f.handle("call.join", func(*proto.Request) (any, *proto.ResponseError) {
		return callSnapshot{Participants: []wireParticipant{{ID: localUUID, Local: true}}}, nil
	})

	c := dialFake(t, f, time.Second)
	defer c.Close()

	enabled := true
	settings := &daily.ClientSettings{Inputs: &daily.InputsUpdate{Microphone: &daily.InputSettingsUpdate{IsEnabled: &enabled}}}
	require.NoError(t, c.Join(context.Background(), "https://x.daily.co/room", "tok", settings))

	joins := f.received("call.join")
	require.Len(t, joins, 1)
	params := decodeParams[joinRequest](t, joins[0])
	require.Equal(t, "https://x.daily.co/room", params.URL)
	require.Equal(t, "tok", params.Token)
	require.True(t, *params.Settings.Inputs.Microphone.IsEnabled)

	require.NotNil(t, c.Participants().Local)
}

func TestJoinError(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	f.handle("call.join", func(*proto.Request) (any, *proto.ResponseError) {
		return nil, proto.NewError(proto.CodeConflict, errors.New("already joined"))
	})

	c := dialFake(t, f, time.Second)
	defer c.Close()

	err := c.Join(context.Background(), "https://x.daily.co/room", "", nil)
	var re *proto.ResponseError
	require.ErrorAs(t, err, &re)
	require.Equal(t, proto.CodeConflict, re.Code)
	require.Equal(t, "already joined", re.Message)
}

func TestRequestTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()
	f.ignore("call.leave")

	c := dialFake(t, f, 50*time.Millisecond)
	defer c.Close()

	err := c.Leave(context.Background())
	require.ErrorIs(t, err, proto.ErrRequestTimeout)
}

func TestParticipantEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	c := dialFake(t, f, time.Second)
	defer c.Close()

	f.emit("participant.joined", participantJoinedEvent{Participant: botWire(daily.MediaStateLoading)})
	evt := nextEvent(t, c)
	joined, ok := evt.(daily.ParticipantJoined)
	require.True(t, ok, "%T", evt)
	require.Equal(t, botUUID, joined.Participant.ID.String())
	require.False(t, joined.Participant.Info.IsLocal)

	mic := joined.Participant.Media.Microphone
	require.Equal(t, daily.MediaStateLoading, mic.State)
	require.Equal(t, "bot-mic", mic.Track.ID())
	require.Equal(t, webrtc.RTPCodecTypeAudio, mic.Track.Kind())
	require.Nil(t, joined.Participant.Media.Camera.Track)

	require.Len(t, c.Participants().Remote, 1)

	f.emit("participant.updated", participantUpdatedEvent{Participant: botWire(daily.MediaStatePlayable)})
	updated, ok := nextEvent(t, c).(daily.ParticipantUpdated)
	require.True(t, ok)
	require.Equal(t, daily.MediaStatePlayable, updated.Participant.Media.Microphone.State)
	require.Same(t, mic.Track, updated.Participant.Media.Microphone.Track)
	require.Len(t, c.Participants().Remote, 1)

	f.emit("participant.left", participantLeftEvent{Participant: botWire(daily.MediaStateOff), Reason: "hangup"})
	left, ok := nextEvent(t, c).(daily.ParticipantLeft)
	require.True(t, ok)
	require.Equal(t, "hangup", left.Reason)
	require.Empty(t, c.Participants().Remote)
}

func TestInvalidParticipantIsSkipped(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	c := dialFake(t, f, time.Second)
	defer c.Close()

	f.emit("participant.joined", participantJoinedEvent{Participant: wireParticipant{ID: "not-a-uuid"}})
	f.emit("unknown.event", map[string]any{"x": 1})
	f.emit("audio_level.local", localAudioLevelEvent{Level: 0.5})

	level, ok := nextEvent(t, c).(daily.LocalAudioLevel)
	require.True(t, ok)
	require.InDelta(t, 0.5, level.Level, 0.0001)
	require.True(t, c.Participants().IsEmpty())
}

func TestCallStateLeftClearsParticipants(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	c := dialFake(t, f, time.Second)
	defer c.Close()

	f.emit("participant.joined", participantJoinedEvent{Participant: botWire(daily.MediaStatePlayable)})
	nextEvent(t, c)

	f.emit("call_state.updated", callStateUpdatedEvent{State: daily.CallStateLeft})
	state, ok := nextEvent(t, c).(daily.CallStateUpdated)
	require.True(t, ok)
	require.Equal(t, daily.CallStateLeft, state.State)
	require.True(t, c.Participants().IsEmpty())
}

func TestRemoteAudioLevels(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	c := dialFake(t, f, time.Second)
	defer c.Close()

	f.emit("audio_level.remote", remoteAudioLevelEvent{Levels: map[string]float32{botUUID: 0.25, "bogus": 1}})
	levels, ok := nextEvent(t, c).(daily.RemoteAudioLevels)
	require.True(t, ok)
	require.Len(t, levels.Levels, 1)

	id, err := daily.ParseParticipantID(botUUID)
	require.NoError(t, err)
	require.InDelta(t, 0.25, levels.Levels[id], 0.0001)
}

func TestInputRequestsUpdateMirror(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	f.handle("audio.set_preferred_device", func(req *proto.Request) (any, *proto.ResponseError) {
		p, err := proto.Decode[setPreferredAudioDeviceRequest](req.Params)
		if err != nil {
			return nil, proto.NewError(proto.CodeBadRequest, err)
		}
		return daily.InputSettings{Microphone: daily.InputSetting{IsEnabled: true, DeviceID: p.DeviceID}}, nil
	})

	c := dialFake(t, f, time.Second)
	defer c.Close()

	require.NoError(t, c.SetPreferredAudioDevice(context.Background(), "mic-2"))
	require.Equal(t, "mic-2", c.Inputs().Microphone.DeviceID)

	// no result keeps the mirror as is
	require.NoError(t, c.SetInputEnabled(context.Background(), daily.InputCamera, true))
	require.Equal(t, "mic-2", c.Inputs().Microphone.DeviceID)

	enables := f.received("inputs.set_enabled")
	require.Len(t, enables, 1)
	params := decodeParams[setInputEnabledRequest](t, enables[0])
	require.Equal(t, daily.InputCamera, params.Input)
	require.True(t, params.Enabled)

	f.emit("inputs.updated", inputsUpdatedEvent{Inputs: daily.InputSettings{Camera: daily.InputSetting{DeviceID: "cam-9"}}})
	_, ok := nextEvent(t, c).(daily.InputsUpdated)
	require.True(t, ok)
	require.Equal(t, "cam-9", c.Inputs().Camera.DeviceID)
}

func TestAudioLevelObservers(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	c := dialFake(t, f, time.Second)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.StartLocalAudioLevelObserver(ctx, 100*time.Millisecond))
	require.NoError(t, c.StopRemoteAudioLevelObserver(ctx))

	reqs := f.received("audio_level.observe")
	require.Len(t, reqs, 2)

	start := decodeParams[observeAudioLevelRequest](t, reqs[0])
	require.Equal(t, observeAudioLevelRequest{Scope: "local", Enabled: true, IntervalMs: 100}, *start)

	stop := decodeParams[observeAudioLevelRequest](t, reqs[1])
	require.Equal(t, observeAudioLevelRequest{Scope: "remote"}, *stop)
}

func TestSendAppMessage(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	c := dialFake(t, f, time.Second)
	defer c.Close()

	require.Error(t, c.SendAppMessage(context.Background(), []byte("{not json")))
	require.NoError(t, c.SendAppMessage(context.Background(), []byte(`{"label":"rtvi-ai","type":"x"}`)))

	sent := f.received("app_message.send")
	require.Len(t, sent, 1)
	params := decodeParams[sendAppMessageRequest](t, sent[0])
	require.Equal(t, "*", params.To)
	require.JSONEq(t, `{"label":"rtvi-ai","type":"x"}`, string(params.Data))
}

func TestClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	c := dialFake(t, f, time.Second)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, ok := <-c.Events()
	require.False(t, ok)

	require.ErrorIs(t, c.Leave(context.Background()), proto.ErrClosed)
}

func TestSidecarDisconnects(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	c := dialFake(t, f, time.Second)
	defer c.Close()

	f.disconnect()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not notice the disconnect")
	}

	for range c.Events() {
	}
	require.ErrorIs(t, c.Leave(context.Background()), proto.ErrClosed)
}

func TestTransportOverSidecar(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeSidecar(t)
	defer f.close()

	c := dialFake(t, f, time.Second)
	d := rtvitest.NewRecordingDelegate()
	tr := daily.NewTransport(c, daily.WithDelegate(d))
	defer tr.Release()

	tr.Initialize(rtvi.ClientOptions{EnableMic: true})
	require.NoError(t, tr.Connect(context.Background(), &daily.ConnectionParams{RoomURL: "https://x.daily.co/room"}))

	f.emit("call_state.updated", callStateUpdatedEvent{State: daily.CallStateJoined})
	f.emit("participant.joined", participantJoinedEvent{Participant: botWire(daily.MediaStateLoading)})
	f.emit("participant.updated", participantUpdatedEvent{Participant: botWire(daily.MediaStatePlayable)})

	require.Eventually(t, func() bool {
		return len(f.received("app_message.send")) == 1
	}, 2*time.Second, 5*time.Millisecond)

	params := decodeParams[sendAppMessageRequest](t, f.received("app_message.send")[0])
	var msg rtvi.MessageOutbound
	require.NoError(t, json.Unmarshal(params.Data, &msg))
	require.Equal(t, rtvi.MessageLabel, msg.Label)
	require.Equal(t, rtvi.MessageTypeClientReady, msg.Type)

	require.Equal(t, rtvi.TransportStateConnected, tr.State())
	require.Equal(t, 1, d.Count("OnBotConnected"))

	tracks := tr.Tracks()
	require.NotNil(t, tracks)
	require.Equal(t, rtvi.MediaTrackID("bot-mic"), tracks.Bot.Audio)

	track, ok := tr.TrackRegistry().Resolve("bot-mic")
	require.True(t, ok)
	require.Equal(t, webrtc.RTPCodecTypeAudio, track.Kind())
}
