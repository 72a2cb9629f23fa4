package daily

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/babelforce/rtvi-go"
	"github.com/babelforce/rtvi-go/audio"
	"github.com/babelforce/rtvi-go/metrics"
)

// ErrCallClientClosed is reported through OnError when the native client
// closes its event stream while the transport is still in use.
var ErrCallClientClosed = errors.New("daily: call client closed")

// Transport adapts a native CallClient to rtvi.Transport. Native events are
// consumed in order by a single goroutine started in NewTransport and stopped
// by Release.
type Transport struct {
	id     string
	opts   transportOptions
	logger *slog.Logger

	// opMu sequences Connect, Disconnect and Release.
	opMu sync.Mutex

	mu                 sync.Mutex
	client             CallClient
	delegate           rtvi.Delegate
	onMessage          func(msg *rtvi.MessageInbound)
	clientOptions      rtvi.ClientOptions
	devicesInitialized bool
	clientReady        bool
	bot                *rtvi.Participant

	state      *stateMachine
	registry   *TrackRegistry
	reconciler *reconciler
	devices    deviceCache

	// owned by the event loop
	localLevel *audio.LevelProcessor
	botLevel   *audio.LevelProcessor

	closeOnce sync.Once
	close     chan struct{}
	done      chan struct{}
}

func NewTransport(client CallClient, opts ...Option) *Transport {
	options := transportOptions{}
	withDefaults()(&options)
	withOptions(opts...)(&options)

	logger := options.logger.With(
		slog.String("component", "daily.transport"),
		slog.String("transport_id", options.id),
	)

	registry := NewTrackRegistry()
	t := &Transport{
		id:         options.id,
		opts:       options,
		logger:     logger,
		client:     client,
		delegate:   options.delegate,
		state:      newStateMachine(logger),
		registry:   registry,
		reconciler: newReconciler(registry),
		close:      make(chan struct{}),
		done:       make(chan struct{}),
	}

	t.localLevel = audio.NewLevelProcessor(
		t.onUserSpeaking,
		audio.WithThreshold(options.localThreshold),
		audio.WithSilenceDelay(options.silenceDelay),
		audio.WithClock(options.clock),
	)
	t.botLevel = audio.NewLevelProcessor(
		t.onBotSpeaking,
		audio.WithThreshold(options.botThreshold),
		audio.WithSilenceDelay(options.silenceDelay),
		audio.WithClock(options.clock),
	)

	go t.run(client.Events())

	return t
}

func (t *Transport) ID() string {
	return t.id
}

func (t *Transport) run(events <-chan Event) {
	defer close(t.done)

	for {
		select {
		case <-t.close:
			return
		case evt, ok := <-events:
			if !ok {
				t.onEventsClosed()
				return
			}
			t.handleEvent(evt)
		}
	}
}

// onEventsClosed handles the native client going away without Release.
func (t *Transport) onEventsClosed() {
	select {
	case <-t.close:
		return
	default:
	}

	if t.State() == rtvi.TransportStateDisconnected {
		t.logger.Debug("call client events closed")
		return
	}
	t.fail("call_client_closed", ErrCallClientClosed)
}

// CallClient returns the underlying native client, nil after Release.
func (t *Transport) CallClient() CallClient {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client
}

// TrackRegistry resolves track ids of the current snapshot to native tracks.
func (t *Transport) TrackRegistry() *TrackRegistry {
	return t.registry
}

func (t *Transport) callClient() (CallClient, error) {
	if c := t.CallClient(); c != nil {
		return c, nil
	}
	return nil, rtvi.ErrTransportReleased
}

func (t *Transport) getDelegate() rtvi.Delegate {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.delegate == nil {
		return rtvi.NopDelegate{}
	}
	return t.delegate
}

func (t *Transport) SetDelegate(d rtvi.Delegate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delegate = d
}

func (t *Transport) OnMessage(fn func(msg *rtvi.MessageInbound)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMessage = fn
}

func (t *Transport) Initialize(opts rtvi.ClientOptions) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clientOptions = opts
}

func (t *Transport) State() rtvi.TransportState {
	return t.state.get()
}

// SetState applies state and notifies the delegate unless the change is
// suppressed.
func (t *Transport) SetState(state rtvi.TransportState) {
	if t.state.set(state) {
		t.getDelegate().OnTransportStateChanged(state)
	}
}

func (t *Transport) fail(kind string, err error) {
	t.logger.Error("transport failed", slog.String("kind", kind), slog.Any("err", err))
	metrics.Errors.WithLabelValues(kind).Inc()
	t.SetState(rtvi.TransportStateError)
	t.getDelegate().OnError(err)
}

// InitDevices publishes the available devices and the current selection and
// starts the audio level observers. Calling it again before Disconnect is a
// no-op.
func (t *Transport) InitDevices(ctx context.Context) error {
	client, err := t.callClient()
	if err != nil {
		return err
	}

	t.mu.Lock()
	initialized := t.devicesInitialized
	t.mu.Unlock()
	if initialized {
		return nil
	}

	t.SetState(rtvi.TransportStateInitializing)

	d := t.getDelegate()
	d.OnAvailableCamsUpdated(t.GetAllCams())
	d.OnAvailableMicsUpdated(t.GetAllMics())

	cam, mic := t.SelectedCam(), t.SelectedMic()
	t.devices.record(cam, mic)
	d.OnCamUpdated(cam)
	d.OnMicUpdated(mic)

	if err := client.StartLocalAudioLevelObserver(ctx, t.opts.audioLevelInterval); err != nil {
		t.logger.Warn("failed to start local audio level observer", slog.Any("err", err))
	}
	if err := client.StartRemoteAudioLevelObserver(ctx, t.opts.audioLevelInterval); err != nil {
		t.logger.Warn("failed to start remote audio level observer", slog.Any("err", err))
	}

	t.mu.Lock()
	t.devicesInitialized = true
	t.mu.Unlock()

	t.SetState(rtvi.TransportStateInitialized)
	return nil
}

// Connect joins the room described by params. Invalid params are rejected
// before any state change. With a connect timeout configured Connect also
// waits until the call leaves the connecting state.
func (t *Transport) Connect(ctx context.Context, params rtvi.TransportConnectionParams) error {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	client, err := t.callClient()
	if err != nil {
		return err
	}

	p, ok := params.(*ConnectionParams)
	if !ok {
		return fmt.Errorf("%w: expected %s params, got %T", rtvi.ErrInvalidTransportParams, TransportName, params)
	}
	roomURL, err := p.validate()
	if err != nil {
		return err
	}

	t.mu.Lock()
	opts := t.clientOptions
	t.mu.Unlock()

	settings := p.JoinSettings.mergeInputsEnabled(opts.EnableCam, opts.EnableMic)

	t.SetState(rtvi.TransportStateConnecting)
	t.logger.Info("joining call", slog.String("room", roomURL.Redacted()))

	if err := client.Join(ctx, roomURL.String(), p.token(), settings); err != nil {
		err = fmt.Errorf("join %s: %w", roomURL.Redacted(), err)
		t.fail("join", err)
		return err
	}

	if opts.ConnectTimeout <= 0 {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	state, err := t.state.wait(waitCtx, func(s rtvi.TransportState) bool {
		return s != rtvi.TransportStateConnecting
	})
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		err = fmt.Errorf("%w after %s", rtvi.ErrConnectTimeout, opts.ConnectTimeout)
		t.fail("connect_timeout", err)
		return err
	default:
		return err
	}

	if !state.IsConnected() {
		return fmt.Errorf("connect: transport is %s", state)
	}
	return nil
}

// Disconnect stops the audio level observers and leaves the call. The
// disconnected state follows from the native call state.
func (t *Transport) Disconnect(ctx context.Context) error {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	client, err := t.callClient()
	if err != nil {
		return err
	}

	switch t.State() {
	case rtvi.TransportStateConnecting, rtvi.TransportStateConnected, rtvi.TransportStateReady:
		t.SetState(rtvi.TransportStateDisconnecting)
	}

	if err := client.StopLocalAudioLevelObserver(ctx); err != nil {
		t.logger.Warn("failed to stop local audio level observer", slog.Any("err", err))
	}
	if err := client.StopRemoteAudioLevelObserver(ctx); err != nil {
		t.logger.Warn("failed to stop remote audio level observer", slog.Any("err", err))
	}

	if err := client.Leave(ctx); err != nil {
		err = fmt.Errorf("leave: %w", err)
		t.fail("leave", err)
		return err
	}

	t.mu.Lock()
	t.devicesInitialized = false
	t.mu.Unlock()
	t.devices.reset()

	return nil
}

// Release stops event processing, closes the native client and makes every
// previously registered track unresolvable. It is safe to call more than once.
func (t *Transport) Release() {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	t.closeOnce.Do(func() {
		close(t.close)
	})
	<-t.done

	t.mu.Lock()
	client := t.client
	t.mu.Unlock()

	if client != nil {
		if err := client.Close(); err != nil {
			t.logger.Warn("failed to close call client", slog.Any("err", err))
		}
	}

	t.reconciler.reset()
	metrics.RegisteredTracks.Set(0)

	t.mu.Lock()
	t.client = nil
	t.bot = nil
	t.mu.Unlock()

	t.logger.Info("released")
}

// WaitState blocks until done reports true for the current state or ctx ends.
func (t *Transport) WaitState(ctx context.Context, done func(rtvi.TransportState) bool) (rtvi.TransportState, error) {
	return t.state.wait(ctx, done)
}

// Tracks returns the snapshot captured by the last refresh.
func (t *Transport) Tracks() *rtvi.Tracks {
	return t.reconciler.snapshot()
}

func (t *Transport) devicesAndInputs() (Devices, InputSettings, bool) {
	client := t.CallClient()
	if client == nil {
		return Devices{}, InputSettings{}, false
	}
	return client.AvailableDevices(), client.Inputs(), true
}

func (t *Transport) GetAllMics() []rtvi.MediaDeviceInfo {
	devices, _, _ := t.devicesAndInputs()
	return toRtviDevices(devices.Microphone)
}

func (t *Transport) GetAllCams() []rtvi.MediaDeviceInfo {
	devices, _, _ := t.devicesAndInputs()
	return toRtviDevices(devices.Camera)
}

// GetAllSpeakers falls back to the microphones when the native client does not
// enumerate output devices separately.
func (t *Transport) GetAllSpeakers() []rtvi.MediaDeviceInfo {
	devices, _, _ := t.devicesAndInputs()
	if len(devices.Speaker) == 0 {
		return toRtviDevices(devices.Microphone)
	}
	return toRtviDevices(devices.Speaker)
}

func (t *Transport) SelectedMic() *rtvi.MediaDeviceInfo {
	devices, inputs, ok := t.devicesAndInputs()
	if !ok {
		return nil
	}
	return findDevice(devices.Microphone, inputs.Microphone.DeviceID)
}

func (t *Transport) SelectedCam() *rtvi.MediaDeviceInfo {
	devices, inputs, ok := t.devicesAndInputs()
	if !ok {
		return nil
	}
	return findDevice(devices.Camera, inputs.Camera.DeviceID)
}

func (t *Transport) UpdateMic(ctx context.Context, id rtvi.MediaDeviceID) error {
	client, err := t.callClient()
	if err != nil {
		return err
	}
	if err := client.SetPreferredAudioDevice(ctx, string(id)); err != nil {
		return fmt.Errorf("update mic %s: %w", id, err)
	}
	return nil
}

func (t *Transport) UpdateCam(ctx context.Context, id rtvi.MediaDeviceID) error {
	client, err := t.callClient()
	if err != nil {
		return err
	}
	if err := client.UpdateCameraDevice(ctx, string(id)); err != nil {
		return fmt.Errorf("update cam %s: %w", id, err)
	}
	return nil
}

func (t *Transport) EnableMic(ctx context.Context, enable bool) error {
	return t.setInputEnabled(ctx, InputMicrophone, enable)
}

func (t *Transport) EnableCam(ctx context.Context, enable bool) error {
	return t.setInputEnabled(ctx, InputCamera, enable)
}

func (t *Transport) setInputEnabled(ctx context.Context, input InputKind, enable bool) error {
	client, err := t.callClient()
	if err != nil {
		return err
	}
	if err := client.SetInputEnabled(ctx, input, enable); err != nil {
		return fmt.Errorf("set %s enabled=%t: %w", input, enable, err)
	}
	return nil
}

func (t *Transport) IsMicEnabled() bool {
	_, inputs, _ := t.devicesAndInputs()
	return inputs.Microphone.IsEnabled
}

func (t *Transport) IsCamEnabled() bool {
	_, inputs, _ := t.devicesAndInputs()
	return inputs.Camera.IsEnabled
}

// SendMessage encodes msg as JSON and broadcasts it to all participants.
func (t *Transport) SendMessage(ctx context.Context, msg *rtvi.MessageOutbound) error {
	client, err := t.callClient()
	if err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message [type=%s]: %w", msg.Type, err)
	}

	if err := client.SendAppMessage(ctx, data); err != nil {
		return fmt.Errorf("send message [type=%s, id=%s]: %w", msg.Type, msg.ID, err)
	}

	metrics.AppMessages.WithLabelValues(msg.Type, "out").Inc()
	return nil
}

var _ rtvi.Transport = &Transport{}
