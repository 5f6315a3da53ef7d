package producer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/playout"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "starting", Starting.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopping", Stopping.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestDefaultPairPolicy(t *testing.T) {
	i50 := testFormat(t, "1080i5000")
	p50 := testFormat(t, "720p5000")

	assert.True(t, DefaultPairPolicy(50, i50))
	assert.False(t, DefaultPairPolicy(25, i50))
	assert.False(t, DefaultPairPolicy(50, p50))
	assert.True(t, DefaultPairPolicy(60000.0/1001, testFormat(t, "NTSC")))
	assert.False(t, NeverPair(50, i50))
}

func TestDecoderProducerDeliversInOrder(t *testing.T) {
	dec := &fakeDecoder{frames: 3}
	p, err := NewDecoderProducer(testFormat(t, "720p5000"), dec, WithName("clip"))
	require.NoError(t, err)
	assert.Equal(t, Stopped, p.State())
	assert.Equal(t, "decoder[clip]", p.String())

	require.NoError(t, p.Start(false))
	defer p.Stop()
	assert.Equal(t, Running, p.State())

	frames := collect(t, p, 3)
	for i, f := range frames {
		assert.Equal(t, byte(i), f.Plane(0)[0], "frame %d", i)
	}

	// end of stream: the channel runs dry and the stream is empty
	require.Eventually(t, func() bool {
		f, err := p.GetFrame()
		return err == nil && f == nil
	}, 2*time.Second, time.Millisecond)
}

func TestGetFrameRepeatsOnUnderflow(t *testing.T) {
	r := &fakeRenderer{}
	p, err := NewRendererProducer(testFormat(t, "PAL"), r, "")
	require.NoError(t, err)
	require.NoError(t, p.Start(false))
	defer p.Stop()

	collect(t, p, 1)
	r.notReady.Store(true)

	require.Eventually(t, func() bool {
		a, errA := p.GetFrame()
		b, errB := p.GetFrame()
		return errA == nil && errB == nil && a != nil && a == b
	}, 2*time.Second, time.Millisecond)
}

func TestStartIsIdempotentUnlessForced(t *testing.T) {
	dec := &fakeDecoder{frames: -1}
	p, err := NewDecoderProducer(testFormat(t, "720p5000"), dec)
	require.NoError(t, err)
	defer p.Stop()

	require.NoError(t, p.Start(false))
	require.NoError(t, p.Start(false))
	assert.EqualValues(t, 1, dec.opens.Load())

	require.NoError(t, p.Start(true))
	assert.EqualValues(t, 2, dec.opens.Load())
	assert.EqualValues(t, 1, dec.closes.Load())
	assert.Equal(t, Running, p.State())
}

func TestStartFailure(t *testing.T) {
	openErr := errors.New("no such device")
	dec := &fakeDecoder{openErr: openErr}
	p, err := NewDecoderProducer(testFormat(t, "720p5000"), dec)
	require.NoError(t, err)

	err = p.Start(false)
	require.ErrorIs(t, err, openErr)
	assert.Equal(t, Stopped, p.State())
	assert.EqualValues(t, 0, dec.closes.Load())

	f, err := p.GetFrame()
	assert.NoError(t, err)
	assert.Nil(t, f)
}

func TestStopClearsChannel(t *testing.T) {
	dec := &fakeDecoder{frames: -1}
	p, err := NewDecoderProducer(testFormat(t, "720p5000"), dec, WithCapacity(2))
	require.NoError(t, err)
	require.NoError(t, p.Start(false))

	require.Eventually(t, func() bool { return p.queue.Len() == 2 }, 2*time.Second, time.Millisecond)

	p.Stop()
	assert.Equal(t, 0, p.queue.Len())
	assert.Equal(t, Stopped, p.State())
	assert.EqualValues(t, 1, dec.closes.Load())

	f, err := p.GetFrame()
	assert.NoError(t, err)
	assert.Nil(t, f)

	// stopping twice is harmless
	p.Stop()
	assert.EqualValues(t, 1, dec.closes.Load())
}

func TestParamRetriesFiveTimes(t *testing.T) {
	dec := &fakeDecoder{frames: -1}
	p, err := NewDecoderProducer(testFormat(t, "720p5000"), dec)
	require.NoError(t, err)
	require.NoError(t, p.Start(false))
	defer p.Stop()

	err = p.Param("SEEK 10")
	require.ErrorIs(t, err, playout.ErrOperationFailed)
	assert.EqualValues(t, 5, dec.calls.Load())
	assert.Equal(t, Running, p.State())
}

func TestParamSucceedsAfterRejections(t *testing.T) {
	dec := &fakeDecoder{frames: -1, acceptOn: 3}
	p, err := NewDecoderProducer(testFormat(t, "720p5000"), dec)
	require.NoError(t, err)
	defer p.Stop()

	// Param starts a stopped producer
	require.NoError(t, p.Param("SEEK 0"))
	assert.EqualValues(t, 3, dec.calls.Load())
	assert.Equal(t, Running, p.State())
	assert.EqualValues(t, 1, dec.opens.Load())
}

func TestWorkerFaultSurfacesOnGetFrame(t *testing.T) {
	for _, panicky := range []bool{false, true} {
		dec := &fakeDecoder{frames: -1, panicky: panicky, acceptOn: 1}
		dec.failAfter.Store(1)
		p, err := NewDecoderProducer(testFormat(t, "720p5000"), dec)
		require.NoError(t, err)
		require.NoError(t, p.Start(false))

		var fault error
		require.Eventually(t, func() bool {
			_, fault = p.GetFrame()
			return fault != nil
		}, 2*time.Second, time.Millisecond)
		assert.Contains(t, fault.Error(), map[bool]string{false: "corrupt packet", true: "panicked"}[panicky])
		assert.Equal(t, Stopped, p.State())

		// the fault is reported once; the next command restarts the worker
		dec.failAfter.Store(0)
		require.NoError(t, p.Param("SEEK 0"))
		assert.EqualValues(t, 2, dec.opens.Load())
		p.Stop()
	}
}

func TestDecoderLoop(t *testing.T) {
	dec := &fakeDecoder{frames: 2}
	p, err := NewDecoderProducer(testFormat(t, "720p5000"), dec)
	require.NoError(t, err)
	require.NoError(t, p.Param("LOOP"))
	defer p.Stop()

	require.Eventually(t, func() bool {
		_, _ = p.GetFrame()
		return dec.opens.Load() >= 3
	}, 2*time.Second, time.Millisecond)
	assert.EqualValues(t, 0, dec.calls.Load(), "LOOP must not reach the decoder")
}

func TestDecoderPairsFieldRateSources(t *testing.T) {
	dec := &fakeDecoder{frames: -1, fps: 50}
	p, err := NewDecoderProducer(testFormat(t, "1080i5000"), dec)
	require.NoError(t, err)
	require.NoError(t, p.Start(false))
	defer p.Stop()

	f := collect(t, p, 1)[0]
	assert.True(t, f.Interlaced())
	assert.True(t, f.TopFieldFirst())
	stride := f.Desc().Planes[0].Stride()
	assert.Equal(t, byte(0), f.Plane(0)[0], "row 0 from the first frame")
	assert.Equal(t, byte(1), f.Plane(0)[stride], "row 1 from the second frame")
}

func TestNeverPair(t *testing.T) {
	dec := &fakeDecoder{frames: -1, fps: 50}
	p, err := NewDecoderProducer(testFormat(t, "1080i5000"), dec, WithPairPolicy(NeverPair))
	require.NoError(t, err)
	require.NoError(t, p.Start(false))
	defer p.Stop()

	f := collect(t, p, 1)[0]
	assert.False(t, f.Interlaced())
}

func TestNilDecoder(t *testing.T) {
	_, err := NewDecoderProducer(testFormat(t, "PAL"), nil)
	assert.ErrorIs(t, err, playout.ErrInvalidOperation)
}

func TestFirstFrameFaultStopsProducer(t *testing.T) {
	for range 50 {
		dec := &fakeDecoder{frames: -1, acceptOn: 1}
		dec.failAfter.Store(-1)
		p, err := NewDecoderProducer(testFormat(t, "720p5000"), dec)
		require.NoError(t, err)
		require.NoError(t, p.Start(false))

		var fault error
		require.Eventually(t, func() bool {
			_, fault = p.GetFrame()
			return fault != nil
		}, 2*time.Second, time.Millisecond)
		assert.Contains(t, fault.Error(), "corrupt packet")
		require.Equal(t, Stopped, p.State(), "a dead worker must not be reported running")

		dec.failAfter.Store(0)
		require.NoError(t, p.Param("SEEK 0"))
		assert.Equal(t, Running, p.State())
		assert.EqualValues(t, 2, dec.opens.Load())
		p.Stop()
	}
}
