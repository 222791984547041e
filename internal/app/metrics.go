package app

import "sync/atomic"

// ChannelStats counts traffic received on one socket.
type ChannelStats struct {
	Frames uint64
	Bytes  uint64
}

// Stats is a point-in-time copy of the runtime counters.
type Stats struct {
	Command ChannelStats
	Video   ChannelStats

	TextFrames       uint64
	DecodeErrors     uint64
	Enqueued         uint64
	Events           uint64
	Unrecognized     uint64
	SubscriberPanics uint64
	Sent             uint64
}

// Metrics holds the live counters shared by the runtime components.
type Metrics struct {
	commandFrames atomic.Uint64
	commandBytes  atomic.Uint64
	videoFrames   atomic.Uint64
	videoBytes    atomic.Uint64

	textFrames       atomic.Uint64
	decodeErrors     atomic.Uint64
	enqueued         atomic.Uint64
	events           atomic.Uint64
	unrecognized     atomic.Uint64
	subscriberPanics atomic.Uint64
	sent             atomic.Uint64
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() Stats {
	return Stats{
		Command: ChannelStats{
			Frames: m.commandFrames.Load(),
			Bytes:  m.commandBytes.Load(),
		},
		Video: ChannelStats{
			Frames: m.videoFrames.Load(),
			Bytes:  m.videoBytes.Load(),
		},
		TextFrames:       m.textFrames.Load(),
		DecodeErrors:     m.decodeErrors.Load(),
		Enqueued:         m.enqueued.Load(),
		Events:           m.events.Load(),
		Unrecognized:     m.unrecognized.Load(),
		SubscriberPanics: m.subscriberPanics.Load(),
		Sent:             m.sent.Load(),
	}
}

// channelCounters selects the frame and byte counters for a channel.
func (m *Metrics) channelCounters(video bool) (frames, bytes *atomic.Uint64) {
	if video {
		return &m.videoFrames, &m.videoBytes
	}
	return &m.commandFrames, &m.commandBytes
}
