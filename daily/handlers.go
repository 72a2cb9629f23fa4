package daily

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/babelforce/rtvi-go"
	"github.com/babelforce/rtvi-go/metrics"
)

func (t *Transport) handleEvent(evt Event) {
	metrics.SessionEvents.WithLabelValues(evt.EventName()).Inc()

	switch e := evt.(type) {
	case ParticipantJoined:
		t.onParticipantJoined(e.Participant)
	case ParticipantUpdated:
		t.onParticipantUpdated(e.Participant)
	case ParticipantLeft:
		t.onParticipantLeft(e.Participant)
	case CallStateUpdated:
		t.onCallStateUpdated(e.State)
	case LocalAudioLevel:
		t.onLocalAudioLevel(e.Level)
	case RemoteAudioLevels:
		t.onRemoteAudioLevels(e.Levels)
	case AvailableDevicesUpdated:
		t.onAvailableDevicesUpdated()
	case InputsUpdated:
		t.onInputsUpdated()
	case AppMessage:
		t.onAppMessage(e)
	default:
		t.logger.Warn("unhandled call client event", slog.String("event", evt.EventName()))
	}
}

// refreshTracks reconciles the snapshot against the native participants and
// reports every track change. It returns the current bot, if any.
func (t *Transport) refreshTracks() *rtvi.Participant {
	client := t.CallClient()
	if client == nil {
		return nil
	}

	bot, _, changes := t.reconciler.refresh(client.Participants())
	metrics.RegisteredTracks.Set(float64(t.registry.Len()))

	t.mu.Lock()
	t.bot = bot
	t.mu.Unlock()

	d := t.getDelegate()
	for _, c := range changes {
		t.emitTrackChange(d, c)
	}
	return bot
}

func (t *Transport) emitTrackChange(d rtvi.Delegate, c TrackChange) {
	change := "stopped"
	if c.Started {
		change = "started"
	}
	metrics.TrackChanges.WithLabelValues(change, string(c.Category)).Inc()

	t.logger.Debug(
		"track "+change,
		slog.String("track_id", string(c.Track.ID)),
		slog.String("category", string(c.Category)),
	)

	switch {
	case c.Started && c.Category.IsScreen():
		d.OnScreenTrackStarted(c.Track, c.Participant)
	case c.Started:
		d.OnTrackStarted(c.Track, c.Participant)
	case c.Category.IsScreen():
		d.OnScreenTrackStopped(c.Track, c.Participant)
	default:
		d.OnTrackStopped(c.Track, c.Participant)
	}
}

func (t *Transport) onParticipantJoined(p Participant) {
	d := t.getDelegate()
	d.OnParticipantJoined(p.toRtvi())

	bot := t.refreshTracks()
	if !p.Info.IsLocal && bot != nil {
		d.OnBotConnected(*bot)
	}
}

func (t *Transport) onParticipantUpdated(p Participant) {
	bot := t.refreshTracks()
	if p.Info.IsLocal || bot == nil || bot.ID != p.ID.toRtvi() || !p.microphonePlayable() {
		return
	}

	t.mu.Lock()
	if t.clientReady {
		t.mu.Unlock()
		return
	}
	t.clientReady = true
	t.mu.Unlock()

	t.sendClientReady()
}

func (t *Transport) sendClientReady() {
	ctx, cancel := context.WithTimeout(context.Background(), t.opts.requestTimeout)
	defer cancel()

	msg := rtvi.NewClientReadyMessage()
	t.logger.Info("bot audio is playable, sending client ready", slog.String("message_id", msg.ID))

	if err := t.SendMessage(ctx, msg); err != nil {
		metrics.Errors.WithLabelValues("client_ready").Inc()
		t.getDelegate().OnError(fmt.Errorf("failed to send message that the client is ready: %w", err))
	}
}

func (t *Transport) onParticipantLeft(p Participant) {
	d := t.getDelegate()
	d.OnParticipantLeft(p.toRtvi())

	bot := t.refreshTracks()
	if !p.Info.IsLocal && bot == nil {
		d.OnBotDisconnected(p.toRtvi())
	}
}

func (t *Transport) onCallStateUpdated(state CallState) {
	t.logger.Debug("call state updated", slog.String("call_state", string(state)))

	switch state {
	case CallStateJoined:
		if t.State() == rtvi.TransportStateDisconnecting {
			t.logger.Debug("ignoring joined while disconnecting")
			metrics.TransportStateSuppressed.WithLabelValues("joined_while_disconnecting").Inc()
			return
		}
		t.SetState(rtvi.TransportStateConnected)
		t.getDelegate().OnConnected()

	case CallStateLeft:
		t.mu.Lock()
		t.clientReady = false
		t.mu.Unlock()
		t.localLevel.Reset()
		t.botLevel.Reset()

		t.SetState(rtvi.TransportStateDisconnected)
		t.getDelegate().OnDisconnected()
	}
}

func (t *Transport) onLocalAudioLevel(level float32) {
	t.getDelegate().OnLocalAudioLevel(level)
	if t.opts.localSpeaking {
		t.localLevel.OnLevel(level)
	}
}

func (t *Transport) onRemoteAudioLevels(levels map[ParticipantID]float32) {
	t.mu.Lock()
	bot := t.bot
	t.mu.Unlock()
	if bot == nil {
		return
	}

	for id, level := range levels {
		if id.toRtvi() != bot.ID {
			continue
		}
		t.getDelegate().OnRemoteAudioLevel(level, *bot)
		t.botLevel.OnLevel(level)
	}
}

func (t *Transport) onUserSpeaking(speaking bool) {
	if speaking {
		t.getDelegate().OnUserStartedSpeaking()
	} else {
		t.getDelegate().OnUserStoppedSpeaking()
	}
}

func (t *Transport) onBotSpeaking(speaking bool) {
	if speaking {
		t.getDelegate().OnBotStartedSpeaking()
	} else {
		t.getDelegate().OnBotStoppedSpeaking()
	}
}

func (t *Transport) onAvailableDevicesUpdated() {
	d := t.getDelegate()
	d.OnAvailableCamsUpdated(t.GetAllCams())
	d.OnAvailableMicsUpdated(t.GetAllMics())
	d.OnAvailableSpeakersUpdated(t.GetAllSpeakers())
}

// onInputsUpdated reports only the selections which differ from the cache.
// The speaker follows the microphone.
func (t *Transport) onInputsUpdated() {
	cam, mic := t.SelectedCam(), t.SelectedMic()
	camChanged, micChanged := t.devices.record(cam, mic)

	d := t.getDelegate()
	if camChanged {
		d.OnCamUpdated(cam)
	}
	if micChanged {
		d.OnMicUpdated(mic)
		d.OnSpeakerUpdated(mic)
	}
}

func (t *Transport) onAppMessage(evt AppMessage) {
	msg, err := rtvi.DecodeMessage(evt.Data)
	if err != nil {
		metrics.AppMessagesDropped.Inc()
		t.logger.Debug("dropping app message", slog.String("from", evt.From.String()), slog.Any("err", err))
		return
	}

	metrics.AppMessages.WithLabelValues(msg.Type, "in").Inc()

	t.mu.Lock()
	fn := t.onMessage
	t.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}
