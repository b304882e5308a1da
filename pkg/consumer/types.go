package consumer

import "encoding/json"

// RTPParameters describe what the engine sends to the remote peer.
// Fixed at consumer creation, never mutated here.
type RTPParameters struct {
	MID              string                  `json:"mid,omitempty"`
	Codecs           []RTPCodecParameters    `json:"codecs"`
	HeaderExtensions []RTPHeaderExtension    `json:"headerExtensions,omitempty"`
	Encodings        []RTPEncodingParameters `json:"encodings,omitempty"`
	RTCP             *RTCPParameters         `json:"rtcp,omitempty"`
}

type RTPCodecParameters struct {
	MimeType     string         `json:"mimeType"`
	PayloadType  byte           `json:"payloadType"`
	ClockRate    int            `json:"clockRate"`
	Channels     int            `json:"channels,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	RTCPFeedback []RTCPFeedback `json:"rtcpFeedback,omitempty"`
}

type RTCPFeedback struct {
	Type      string `json:"type"`
	Parameter string `json:"parameter,omitempty"`
}

type RTPHeaderExtension struct {
	URI     string `json:"uri"`
	ID      int    `json:"id"`
	Encrypt bool   `json:"encrypt,omitempty"`
}

type RTPEncodingParameters struct {
	SSRC            uint32 `json:"ssrc,omitempty"`
	RID             string `json:"rid,omitempty"`
	ScalabilityMode string `json:"scalabilityMode,omitempty"`
	MaxBitrate      int    `json:"maxBitrate,omitempty"`
	DTX             bool   `json:"dtx,omitempty"`
}

type RTCPParameters struct {
	CNAME       string `json:"cname,omitempty"`
	ReducedSize bool   `json:"reducedSize"`
}

// Score - engine reported transmission quality. ProducerScores has one item
// per encoding the source currently publishes, so its length may change
// between updates.
type Score struct {
	Score          int   `json:"score"`
	ProducerScore  int   `json:"producerScore"`
	ProducerScores []int `json:"producerScores"`
}

// Layers - spatial/temporal layer selection for simulcast and SVC consumers.
// Nil Temporal means the whole spatial layer.
type Layers struct {
	SpatialLayer  int  `json:"spatialLayer"`
	TemporalLayer *int `json:"temporalLayer,omitempty"`
}

type TraceEvent struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Direction string          `json:"direction"` // in, out
	Info      json.RawMessage `json:"info,omitempty"`
}

// TraceEventTypes - every trace type the engine knows
var TraceEventTypes = []string{"rtp", "keyframe", "nack", "pli", "fir"}

const DefaultPriority = 1
