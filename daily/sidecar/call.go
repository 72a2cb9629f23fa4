package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/babelforce/rtvi-go/daily"
)

func (c *Client) Join(ctx context.Context, roomURL string, token string, settings *daily.ClientSettings) error {
	var snap callSnapshot
	if err := c.request(ctx, joinRequest{URL: roomURL, Token: token, Settings: settings}, &snap); err != nil {
		return err
	}
	return c.mirror.apply(&snap)
}

func (c *Client) Leave(ctx context.Context) error {
	return c.request(ctx, leaveRequest{}, nil)
}

func (c *Client) Participants() daily.Participants {
	return c.mirror.participants()
}

func (c *Client) AvailableDevices() daily.Devices {
	return c.mirror.getDevices()
}

func (c *Client) Inputs() daily.InputSettings {
	return c.mirror.getInputs()
}

// updateInputs issues an input request. The sidecar answers with the resulting
// input settings which are applied right away.
func (c *Client) updateInputs(ctx context.Context, req namedRequest) error {
	var inputs *daily.InputSettings
	if err := c.request(ctx, req, &inputs); err != nil {
		return err
	}
	if inputs != nil {
		c.mirror.setInputs(*inputs)
	}
	return nil
}

func (c *Client) SetInputEnabled(ctx context.Context, input daily.InputKind, enabled bool) error {
	return c.updateInputs(ctx, setInputEnabledRequest{Input: input, Enabled: enabled})
}

func (c *Client) SetPreferredAudioDevice(ctx context.Context, deviceID string) error {
	return c.updateInputs(ctx, setPreferredAudioDeviceRequest{DeviceID: deviceID})
}

func (c *Client) UpdateCameraDevice(ctx context.Context, deviceID string) error {
	return c.updateInputs(ctx, updateCameraRequest{DeviceID: deviceID})
}

// SendAppMessage broadcasts data, which must be a JSON document, to every
// participant.
func (c *Client) SendAppMessage(ctx context.Context, data []byte) error {
	if !json.Valid(data) {
		return errors.New("app message is not valid json")
	}
	return c.request(ctx, sendAppMessageRequest{Data: data, To: "*"}, nil)
}

func (c *Client) observeAudioLevel(ctx context.Context, scope string, enabled bool, interval time.Duration) error {
	return c.request(ctx, observeAudioLevelRequest{
		Scope:      scope,
		Enabled:    enabled,
		IntervalMs: interval.Milliseconds(),
	}, nil)
}

func (c *Client) StartLocalAudioLevelObserver(ctx context.Context, interval time.Duration) error {
	return c.observeAudioLevel(ctx, "local", true, interval)
}

func (c *Client) StopLocalAudioLevelObserver(ctx context.Context) error {
	return c.observeAudioLevel(ctx, "local", false, 0)
}

func (c *Client) StartRemoteAudioLevelObserver(ctx context.Context, interval time.Duration) error {
	return c.observeAudioLevel(ctx, "remote", true, interval)
}

func (c *Client) StopRemoteAudioLevelObserver(ctx context.Context) error {
	return c.observeAudioLevel(ctx, "remote", false, 0)
}
