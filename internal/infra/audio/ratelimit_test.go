package audio_test

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embedded-assistant/internal/infra/audio"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2017, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(t *testing.T, r io.Reader) (*audio.SampleRateLimiter, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	limiter, err := audio.NewSampleRateLimiter(r, 16000, 16, audio.WithClock(clock.Now, clock.Sleep))
	require.NoError(t, err)
	return limiter, clock
}

func TestSampleRateLimiter_SleepTimeIsLinear(t *testing.T) {
	limiter, _ := newTestLimiter(t, &bytes.Buffer{})

	assert.Equal(t, 0.004, limiter.SleepTime(1024))
	assert.Equal(t, 4*time.Millisecond, limiter.SleepDuration(1024))
	assert.Equal(t, limiter.SleepTime(1024), 2*limiter.SleepTime(512))

	for _, size := range []int{0, 16, 320, 3200, 6400} {
		assert.Equal(t, 2*limiter.SleepTime(size), limiter.SleepTime(2*size), "size %d", size)
	}
}

// Sizes that are not a whole number of samples must scale exactly too.
func TestSampleRateLimiter_SleepTimeIsLinearForPartialSamples(t *testing.T) {
	limiter, _ := newTestLimiter(t, &bytes.Buffer{})

	for size := 1; size <= 64; size++ {
		assert.Equal(t, 2*limiter.SleepTime(size), limiter.SleepTime(2*size), "size %d", size)
	}
	for _, size := range []int{1, 3, 7, 1023, 3201} {
		assert.Equal(t, 4*limiter.SleepTime(size), limiter.SleepTime(4*size), "size %d", size)
	}
}

func TestSampleRateLimiter_NoSleepOnFirstRead(t *testing.T) {
	limiter, clock := newTestLimiter(t, &bytes.Buffer{})

	_, err := limiter.Read(1024)
	require.NoError(t, err)

	assert.Empty(t, clock.slept)
}

func TestSampleRateLimiter_SleepsForPreviousRead(t *testing.T) {
	limiter, clock := newTestLimiter(t, &bytes.Buffer{})

	_, err := limiter.Read(1024)
	require.NoError(t, err)
	_, err = limiter.Read(512)
	require.NoError(t, err)

	require.Len(t, clock.slept, 1)
	assert.Equal(t, limiter.SleepDuration(1024), clock.slept[0])
}

func TestSampleRateLimiter_ZeroReadRespectsAccruedDelay(t *testing.T) {
	limiter, clock := newTestLimiter(t, &bytes.Buffer{})

	for _, size := range []int{1024, 512, 0, 0} {
		_, err := limiter.Read(size)
		require.NoError(t, err)
	}

	assert.Equal(t, []time.Duration{limiter.SleepDuration(1024), limiter.SleepDuration(512)}, clock.slept)
}

func TestSampleRateLimiter_SleepsOnlyForMissingTime(t *testing.T) {
	limiter, clock := newTestLimiter(t, &bytes.Buffer{})

	_, err := limiter.Read(1024)
	require.NoError(t, err)
	clock.Advance(time.Millisecond)
	_, err = limiter.Read(1024)
	require.NoError(t, err)
	clock.Advance(10 * time.Millisecond)
	_, err = limiter.Read(1024)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{3 * time.Millisecond}, clock.slept)
}

func TestSampleRateLimiter_WallClock(t *testing.T) {
	limiter, err := audio.NewSampleRateLimiter(&bytes.Buffer{}, 16000, 16)
	require.NoError(t, err)

	start := time.Now()
	_, err = limiter.Read(1024)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), limiter.SleepDuration(1024))

	_, err = limiter.Read(512)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), limiter.SleepDuration(1024))
}

func TestSampleRateLimiter_PadsWithSilence(t *testing.T) {
	limiter, _ := newTestLimiter(t, bytes.NewReader([]byte("audiodata")))

	data, err := limiter.Read(9)
	require.NoError(t, err)
	assert.Equal(t, []byte("audiodata"), data)

	data, err = limiter.Read(9)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 9), data)
}

func TestSampleRateLimiter_PadsShortRead(t *testing.T) {
	limiter, _ := newTestLimiter(t, bytes.NewReader([]byte("abc")))

	data, err := limiter.Read(8)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc\x00\x00\x00\x00\x00"), data)
}

type failingReader struct{ err error }

func (f failingReader) Read(_ []byte) (int, error) { return 0, f.err }

func TestSampleRateLimiter_PropagatesReaderErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	limiter, _ := newTestLimiter(t, failingReader{err: boom})

	_, err := limiter.Read(16)
	assert.ErrorIs(t, err, boom)
}

type closeRecorder struct {
	io.Reader
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestSampleRateLimiter_CloseReleasesSource(t *testing.T) {
	src := &closeRecorder{Reader: &bytes.Buffer{}}
	limiter, _ := newTestLimiter(t, src)

	require.NoError(t, limiter.Close())
	assert.Equal(t, 1, src.closed)

	plain, _ := newTestLimiter(t, &bytes.Buffer{})
	assert.NoError(t, plain.Close())
}

func TestNewSampleRateLimiter_RejectsInvalidRates(t *testing.T) {
	_, err := audio.NewSampleRateLimiter(&bytes.Buffer{}, 0, 2)
	assert.Error(t, err)

	_, err = audio.NewSampleRateLimiter(&bytes.Buffer{}, 16000, 0)
	assert.Error(t, err)
}
