package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/dronelink/internal/domain"
	"github.com/bft-labs/dronelink/pkg/log"
	"github.com/bft-labs/dronelink/pkg/telemetry"
	"github.com/bft-labs/dronelink/pkg/wire"
)

const (
	testCommandPort uint16 = 8889
	testVideoPort   uint16 = 6037
)

func newTestRuntime(d *fakeDialer) *Runtime {
	cfg := RuntimeConfig{Host: "127.0.0.1", CommandPort: testCommandPort, VideoPort: testVideoPort}
	return NewRuntime(cfg, d, wire.NewCodec(), telemetry.DefaultRegistry(), log.NewNoopLogger())
}

func startRuntime(t *testing.T, rt *Runtime) (context.CancelFunc, <-chan error) {
	t.Helper()
	require.NoError(t, rt.Open(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()
	return cancel, done
}

func TestRuntime_PublishesTelemetry(t *testing.T) {
	d := newFakeDialer()
	rt := newTestRuntime(d)
	rec := newRecorder()
	rt.Subscribe(rec)

	cancel, done := startRuntime(t, rt)
	cmd := d.conn(testCommandPort)

	bad := wifiFrame(1, 10, 10)
	bad[len(bad)-2] ^= 0x01
	cmd.deliver(bad)
	cmd.deliver([]byte("ok"))
	cmd.deliver(wire.NewCodec().Encode(wire.NewCommand(0x7fff, wire.PacketTypeSet, []byte{1}), 2))
	cmd.deliver(wifiFrame(3, 90, 4))
	d.conn(testVideoPort).deliver(make([]byte, 1460))

	events := rec.wait(t, 1)
	assert.Equal(t, []telemetry.Event{telemetry.WifiStatus{Strength: 90, Interference: 4}}, events)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runtime did not stop")
	}

	stats := rt.Stats()
	assert.Equal(t, uint64(4), stats.Command.Frames)
	assert.Equal(t, uint64(1), stats.DecodeErrors)
	assert.Equal(t, uint64(1), stats.TextFrames)
	assert.Equal(t, uint64(1), stats.Unrecognized)
	assert.Equal(t, uint64(1), stats.Events)
	assert.True(t, d.conn(testCommandPort).isClosed())
	assert.True(t, d.conn(testVideoPort).isClosed())
}

func TestRuntime_VideoFramesAreCounted(t *testing.T) {
	d := newFakeDialer()
	rt := newTestRuntime(d)
	rec := newRecorder()
	rt.Subscribe(rec)

	cancel, done := startRuntime(t, rt)
	video := d.conn(testVideoPort)
	video.deliver(wifiFrame(1, 1, 1))
	video.deliver([]byte{0, 0, 0, 1})

	require.Eventually(t, func() bool { return rt.Stats().Video.Frames == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, rec.count(), "video frames never reach subscribers")
	assert.Zero(t, rt.Stats().Command.Frames)
}

func TestRuntime_TransportFaultStopsAllLoops(t *testing.T) {
	d := newFakeDialer()
	rt := newTestRuntime(d)

	cancel, done := startRuntime(t, rt)
	defer cancel()
	d.conn(testVideoPort).failWith(errors.New("interface went away"))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrTransport)
	case <-time.After(2 * time.Second):
		t.Fatal("runtime did not stop after fault")
	}
	assert.True(t, d.conn(testCommandPort).isClosed())

	_, err := rt.Send(wire.NewCommand(wire.CmdLand, wire.PacketTypeSet, nil))
	assert.ErrorIs(t, err, domain.ErrNotRunning)
}

func TestRuntime_SendUsesCommandSocket(t *testing.T) {
	d := newFakeDialer()
	rt := newTestRuntime(d)
	cancel, done := startRuntime(t, rt)
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, rt.SendRaw(wire.ConnectionRequest(testVideoPort)))
	seq, err := rt.Send(wire.NewCommand(wire.CmdTakeOff, wire.PacketTypeSet, nil))
	require.NoError(t, err)
	assert.Zero(t, seq)

	frames := d.conn(testCommandPort).frames()
	require.Len(t, frames, 2)
	assert.False(t, wire.IsBinary(frames[0]))
	cmd, err := wire.DecodeFrame(wire.NewCodec(), frames[1])
	require.NoError(t, err)
	assert.Equal(t, wire.CmdTakeOff, cmd.ID)
	assert.Empty(t, d.conn(testVideoPort).frames())
}

func TestRuntime_SequenceSurvivesRestart(t *testing.T) {
	d := newFakeDialer()
	rt := newTestRuntime(d)

	for run := 0; run < 2; run++ {
		cancel, done := startRuntime(t, rt)
		_, err := rt.Send(wire.NewCommand(wire.CmdTakeOff, wire.PacketTypeSet, nil))
		require.NoError(t, err)
		cancel()
		require.NoError(t, <-done)
	}
	assert.Equal(t, uint16(2), rt.Sequence())
}

func TestRuntime_OpenTwice(t *testing.T) {
	rt := newTestRuntime(newFakeDialer())
	require.NoError(t, rt.Open(context.Background()))
	defer rt.Close()

	assert.ErrorIs(t, rt.Open(context.Background()), domain.ErrAlreadyRunning)
}

func TestRuntime_DialFailure(t *testing.T) {
	d := newFakeDialer()
	d.err = errors.New("no route to host")
	rt := newTestRuntime(d)

	err := rt.Open(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorIs(t, rt.Run(context.Background()), domain.ErrNotRunning)
}

func TestRuntime_Replay(t *testing.T) {
	rt := newTestRuntime(newFakeDialer())
	rec := newRecorder()
	rt.Subscribe(rec)

	src := &sliceSource{frames: [][]byte{
		[]byte("conn_ack"),
		wifiFrame(1, 50, 1),
		{wire.Sentinel, 1, 2},
		wire.NewCodec().Encode(wire.NewCommand(wire.CmdLightStrength, wire.PacketTypeSet, []byte{7}), 2),
	}}

	require.NoError(t, rt.Replay(context.Background(), src))

	assert.Equal(t, []telemetry.Event{
		telemetry.WifiStatus{Strength: 50, Interference: 1},
		telemetry.LightStrength{Strength: 7},
	}, rec.wait(t, 2))
	stats := rt.Stats()
	assert.Equal(t, uint64(4), stats.Command.Frames)
	assert.Equal(t, uint64(1), stats.TextFrames)
	assert.Equal(t, uint64(1), stats.DecodeErrors)
}

func TestRuntime_ReplayCancelled(t *testing.T) {
	rt := newTestRuntime(newFakeDialer())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rt.Replay(ctx, &sliceSource{frames: [][]byte{wifiFrame(1, 1, 1)}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRuntime_ReplayRejectedWhileOpen(t *testing.T) {
	rt := newTestRuntime(newFakeDialer())
	rec := newRecorder()
	rt.Subscribe(rec)
	require.NoError(t, rt.Open(context.Background()))

	err := rt.Replay(context.Background(), &sliceSource{frames: [][]byte{wifiFrame(1, 1, 1)}})
	require.ErrorIs(t, err, domain.ErrAlreadyRunning)
	assert.Zero(t, rec.count())
	assert.Zero(t, rt.Stats().Command.Frames)

	rt.Close()
	require.NoError(t, rt.Replay(context.Background(), &sliceSource{frames: [][]byte{wifiFrame(1, 1, 1)}}))
	rec.wait(t, 1)
}

func TestRuntime_OpenRejectedDuringReplay(t *testing.T) {
	rt := newTestRuntime(newFakeDialer())
	src := newGatedSource()

	done := make(chan error, 1)
	go func() { done <- rt.Replay(context.Background(), src) }()
	<-src.started

	require.ErrorIs(t, rt.Open(context.Background()), domain.ErrAlreadyRunning)

	close(src.release)
	require.NoError(t, <-done)
	require.NoError(t, rt.Open(context.Background()))
	rt.Close()
}
