package sidecar

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/babelforce/rtvi-go/daily"
	"github.com/babelforce/rtvi-go/proto"
)

type eventHandler interface {
	EventName() string
	handle(c *Client, data json.RawMessage) (daily.Event, error)
}

// typedEventHandler decodes the event data into T before calling fn.
type typedEventHandler[T namedEvent] struct {
	fn func(*Client, *T) (daily.Event, error)
}

func (h *typedEventHandler[T]) EventName() string {
	var zero T
	return zero.EventName()
}

func (h *typedEventHandler[T]) handle(c *Client, data json.RawMessage) (daily.Event, error) {
	evt, err := proto.Decode[T](data)
	if err != nil {
		return nil, err
	}
	if evt == nil {
		evt = new(T)
	}
	return h.fn(c, evt)
}

func handleEvent[T namedEvent](fn func(*Client, *T) (daily.Event, error)) eventHandler {
	return &typedEventHandler[T]{fn: fn}
}

func indexEventHandlers(handlers ...eventHandler) map[string]eventHandler {
	out := make(map[string]eventHandler, len(handlers))
	for _, h := range handlers {
		out[h.EventName()] = h
	}
	return out
}

var eventHandlers = indexEventHandlers(
	handleEvent(onParticipantJoined),
	handleEvent(onParticipantUpdated),
	handleEvent(onParticipantLeft),
	handleEvent(onCallStateUpdated),
	handleEvent(onLocalAudioLevel),
	handleEvent(onRemoteAudioLevel),
	handleEvent(onDevicesUpdated),
	handleEvent(onInputsUpdated),
	handleEvent(onAppMessageReceived),
)

func onParticipantJoined(c *Client, evt *participantJoinedEvent) (daily.Event, error) {
	p, err := c.mirror.upsert(evt.Participant)
	if err != nil {
		return nil, err
	}
	return daily.ParticipantJoined{Participant: p}, nil
}

func onParticipantUpdated(c *Client, evt *participantUpdatedEvent) (daily.Event, error) {
	p, err := c.mirror.upsert(evt.Participant)
	if err != nil {
		return nil, err
	}
	return daily.ParticipantUpdated{Participant: p}, nil
}

func onParticipantLeft(c *Client, evt *participantLeftEvent) (daily.Event, error) {
	p, err := c.mirror.remove(evt.Participant)
	if err != nil {
		return nil, err
	}
	return daily.ParticipantLeft{Participant: p, Reason: evt.Reason}, nil
}

func onCallStateUpdated(c *Client, evt *callStateUpdatedEvent) (daily.Event, error) {
	if evt.State == "" {
		return nil, errors.New("call state is empty")
	}
	if evt.State == daily.CallStateLeft {
		c.mirror.leave()
	}
	return daily.CallStateUpdated{State: evt.State}, nil
}

func onLocalAudioLevel(_ *Client, evt *localAudioLevelEvent) (daily.Event, error) {
	return daily.LocalAudioLevel{Level: evt.Level}, nil
}

func onRemoteAudioLevel(c *Client, evt *remoteAudioLevelEvent) (daily.Event, error) {
	levels := make(map[daily.ParticipantID]float32, len(evt.Levels))
	for id, level := range evt.Levels {
		pid, err := daily.ParseParticipantID(id)
		if err != nil {
			c.logger.Debug("skipping audio level of unknown participant", slog.String("participant_id", id))
			continue
		}
		levels[pid] = level
	}
	return daily.RemoteAudioLevels{Levels: levels}, nil
}

func onDevicesUpdated(c *Client, evt *devicesUpdatedEvent) (daily.Event, error) {
	c.mirror.setDevices(evt.Devices)
	return daily.AvailableDevicesUpdated{Devices: evt.Devices}, nil
}

func onInputsUpdated(c *Client, evt *inputsUpdatedEvent) (daily.Event, error) {
	c.mirror.setInputs(evt.Inputs)
	return daily.InputsUpdated{Inputs: evt.Inputs}, nil
}

func onAppMessageReceived(_ *Client, evt *appMessageReceivedEvent) (daily.Event, error) {
	// the sender is informational, messages from the server have no uuid
	from, _ := daily.ParseParticipantID(evt.From)
	return daily.AppMessage{Data: []byte(evt.Data), From: from}, nil
}
