package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransportStateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtvi_transport_state_transitions_total",
		Help: "Transport state changes by target state",
	}, []string{"state"})

	TransportStateSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtvi_transport_state_suppressed_total",
		Help: "State changes or native signals ignored by the transport",
	}, []string{"reason"}) // "connected_after_ready" | "joined_while_disconnecting"

	UndocumentedTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtvi_transport_undocumented_transitions_total",
		Help: "State changes applied although they are not part of the transition graph",
	})

	SessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtvi_session_events_total",
		Help: "Native call client events handled",
	}, []string{"event"})

	TrackChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtvi_track_changes_total",
		Help: "Track started/stopped notifications",
	}, []string{"change", "category"}) // change: "started" | "stopped"

	RegisteredTracks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rtvi_registered_tracks",
		Help: "Tracks resolvable in the registry after the last refresh",
	})

	AppMessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtvi_app_messages_dropped_total",
		Help: "Inbound app messages which were not RTVI messages",
	})

	AppMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtvi_app_messages_total",
		Help: "RTVI control messages",
	}, []string{"type", "direction"}) // direction: "in" | "out"

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtvi_errors_total",
		Help: "Errors reported to the delegate",
	}, []string{"kind"}) // "join" | "connect_timeout" | "client_ready" | "leave"

	SidecarRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rtvi_sidecar_request_duration_seconds",
		Help:    "Round trip time of sidecar requests",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"method"})

	SidecarConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rtvi_sidecar_connected",
		Help: "1 while the sidecar websocket is open",
	})
)
