package main

import (
	"log/slog"

	"github.com/babelforce/rtvi-go"
)

// logDelegate logs the transport callbacks worth seeing on a console.
// Audio levels are left out.
type logDelegate struct {
	rtvi.NopDelegate
	log *slog.Logger
}

func newLogDelegate(log *slog.Logger) *logDelegate {
	return &logDelegate{log: log.With(slog.String("component", "delegate"))}
}

func (d *logDelegate) OnTransportStateChanged(state rtvi.TransportState) {
	d.log.Info("transport state", slog.String("state", state.String()))
}

func (d *logDelegate) OnConnected() {
	d.log.Info("connected")
}

func (d *logDelegate) OnDisconnected() {
	d.log.Info("disconnected")
}

func (d *logDelegate) OnParticipantJoined(p rtvi.Participant) {
	d.log.Info("participant joined", slog.Any("participant", p))
}

func (d *logDelegate) OnParticipantLeft(p rtvi.Participant) {
	d.log.Info("participant left", slog.Any("participant", p))
}

func (d *logDelegate) OnBotConnected(p rtvi.Participant) {
	d.log.Info("bot connected", slog.Any("participant", p))
}

func (d *logDelegate) OnBotDisconnected(p rtvi.Participant) {
	d.log.Info("bot disconnected", slog.Any("participant", p))
}

func (d *logDelegate) OnUserStartedSpeaking() { d.log.Debug("user started speaking") }

func (d *logDelegate) OnUserStoppedSpeaking() { d.log.Debug("user stopped speaking") }

func (d *logDelegate) OnBotStartedSpeaking() { d.log.Info("bot started speaking") }

func (d *logDelegate) OnBotStoppedSpeaking() { d.log.Info("bot stopped speaking") }

func (d *logDelegate) OnTrackStarted(track rtvi.MediaStreamTrack, p *rtvi.Participant) {
	d.log.Debug("track started", slog.Any("track", track), slog.Any("participant", p))
}

func (d *logDelegate) OnTrackStopped(track rtvi.MediaStreamTrack, p *rtvi.Participant) {
	d.log.Debug("track stopped", slog.Any("track", track), slog.Any("participant", p))
}

func (d *logDelegate) OnMicUpdated(mic *rtvi.MediaDeviceInfo) {
	d.log.Info("mic updated", slog.Any("mic", mic))
}

func (d *logDelegate) OnCamUpdated(cam *rtvi.MediaDeviceInfo) {
	d.log.Info("cam updated", slog.Any("cam", cam))
}

func (d *logDelegate) OnError(err error) {
	d.log.Error("transport error", slog.Any("err", err))
}
