package api

import (
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anishathalye/porcupine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParams(t *testing.T, cfg ParamsCfg) *Parameters {
	t.Helper()
	p, err := cfg.Build()
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func TestNewParameters(t *testing.T) {
	t.Run("typical values", func(t *testing.T) {
		p, err := NewParameters(400, 200, 100, 500, 10, 10, 0, 4096)
		require.NoError(t, err)

		assert.Equal(t, 400, p.ElectionTimeoutUpperBound())
		assert.Equal(t, 200, p.ElectionTimeoutLowerBound())
		assert.Equal(t, 100, p.HeartbeatInterval())
		assert.Equal(t, 500, p.RPCFailureBackoff())
		assert.Equal(t, 10, p.LogSyncBatchSize())
		assert.Equal(t, 10, p.LogSyncStopGap())
		assert.Equal(t, 0, p.SnapshotDistance())
		assert.Equal(t, 4096, p.SnapshotBlockSize())
		assert.Equal(t, 150, p.MaxHeartbeatInterval())
	})

	t.Run("heartbeat equal to lower bound", func(t *testing.T) {
		p, err := NewParameters(400, 200, 200, 1, 2, 3, 4, 5)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("heartbeat above lower bound", func(t *testing.T) {
		p, err := NewParameters(400, 200, 201, 0, 0, 0, 0, 0)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "201")
	})

	t.Run("zero heartbeat", func(t *testing.T) {
		p, err := NewParameters(7, 1, 0, 9, 9, 9, 9, 9)
		require.NoError(t, err)
		assert.Equal(t, 1, p.MaxHeartbeatInterval())
	})

	t.Run("nonsensical values are accepted", func(t *testing.T) {
		p, err := NewParameters(-10, 5, -3, -1, -1, -1, -1, -1)
		require.NoError(t, err)
		assert.Equal(t, -10, p.ElectionTimeoutUpperBound())
		assert.Equal(t, -1, p.SnapshotBlockSize())
	})
}

func TestMaxHeartbeatInterval(t *testing.T) {
	tests := []struct {
		name      string
		lower     int
		heartbeat int
		want      int
	}{
		{"lower bound dominates", 200, 100, 150},
		{"odd heartbeat floors", 200, 99, 151},
		{"heartbeat dominates", 10, 9, 9},
		{"equal candidates", 150, 100, 100},
		{"one ms heartbeat", 2, 1, 2},
		{"negative odd heartbeat truncates toward zero", 0, -3, 1},
		{"negative even heartbeat", 0, -4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParameters(tt.lower*2, tt.lower, tt.heartbeat, 0, 0, 0, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.MaxHeartbeatInterval())
			assert.Equal(t, time.Duration(tt.want)*time.Millisecond, p.MaxHeartbeat())
		})
	}
}

func TestParametersRandomized(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for range 1000 {
		cfg := ParamsCfg{
			ElectionTimeoutUpper: r.Intn(2000),
			ElectionTimeoutLower: r.Intn(1000),
			HeartbeatInterval:    r.Intn(1000),
			RPCFailureBackoff:    r.Intn(1000),
			LogSyncBatchSize:     r.Intn(1000),
			LogSyncStopGap:       r.Intn(1000),
			SnapshotDistance:     r.Intn(1000),
			SnapshotBlockSize:    r.Intn(1 << 20),
		}

		p, err := cfg.Build()
		if cfg.HeartbeatInterval >= cfg.ElectionTimeoutLower {
			require.ErrorIs(t, err, ErrInvalidConfiguration)
			require.Nil(t, p)
			continue
		}

		require.NoError(t, err)
		assert.Equal(t, cfg, p.Config())
		want := cfg.ElectionTimeoutLower - cfg.HeartbeatInterval/2
		if cfg.HeartbeatInterval > want {
			want = cfg.HeartbeatInterval
		}
		assert.Equal(t, want, p.MaxHeartbeatInterval())
	}
}

func TestValidateStrict(t *testing.T) {
	t.Run("sane values pass", func(t *testing.T) {
		p := mustParams(t, ParamsCfg{
			ElectionTimeoutUpper: 300,
			ElectionTimeoutLower: 150,
			HeartbeatInterval:    50,
		})
		assert.NoError(t, p.ValidateStrict())
	})

	t.Run("inverted bounds", func(t *testing.T) {
		p := mustParams(t, ParamsCfg{
			ElectionTimeoutUpper: 100,
			ElectionTimeoutLower: 200,
			HeartbeatInterval:    50,
		})
		err := p.ValidateStrict()
		assert.ErrorIs(t, err, ErrElectionBoundsInverted)
		assert.NotErrorIs(t, err, ErrNegativeParameter)
	})

	t.Run("all problems reported", func(t *testing.T) {
		p := mustParams(t, ParamsCfg{
			ElectionTimeoutUpper: -1,
			ElectionTimeoutLower: 10,
			HeartbeatInterval:    -5,
			SnapshotBlockSize:    -4096,
		})
		err := p.ValidateStrict()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNegativeParameter)
		assert.ErrorIs(t, err, ErrElectionBoundsInverted)
		assert.Contains(t, err.Error(), "heartbeat_interval = -5")
		assert.Contains(t, err.Error(), "snapshot_block_size = -4096")
		assert.Equal(t, 4, len(strings.Split(err.Error(), "\n")))
	})

	t.Run("strict check does not replace construction check", func(t *testing.T) {
		_, err := NewParameters(300, 150, 150, 0, 0, 0, 0, 0)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	})
}

func TestDerivedViews(t *testing.T) {
	p := mustParams(t, ParamsCfg{
		ElectionTimeoutUpper: 400,
		ElectionTimeoutLower: 200,
		HeartbeatInterval:    100,
		RPCFailureBackoff:    500,
		SnapshotDistance:     1000,
	})

	assert.True(t, p.SnapshotsEnabled())
	assert.Equal(t, 500*time.Millisecond, p.RPCBackoff())

	tm := p.Timings(time.Second, 3*time.Second)
	assert.Equal(t, RaftTimings{
		ElectionTimeoutBase:        200 * time.Millisecond,
		ElectionTimeoutRandomDelta: 200 * time.Millisecond,
		HeartbeatTimeout:           100 * time.Millisecond,
		RPCTimeout:                 time.Second,
		ShutdownTimeout:            3 * time.Second,
	}, tm)

	t.Run("inverted bounds give zero delta", func(t *testing.T) {
		p := mustParams(t, ParamsCfg{ElectionTimeoutUpper: 10, ElectionTimeoutLower: 20})
		assert.Zero(t, p.Timings(0, 0).ElectionTimeoutRandomDelta)
		assert.False(t, p.SnapshotsEnabled())
	})

	t.Run("extreme values saturate", func(t *testing.T) {
		p, err := NewParameters(math.MaxInt, math.MinInt+1, math.MinInt, math.MaxInt, 0, 0, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, time.Duration(math.MaxInt64), p.ElectionTimeoutUpper())
		assert.Equal(t, time.Duration(math.MinInt64), p.ElectionTimeoutLower())
		assert.Equal(t, time.Duration(math.MinInt64), p.Heartbeat())
		assert.Equal(t, time.Duration(math.MaxInt64), p.RPCBackoff())
		assert.Equal(t, time.Duration(math.MaxInt64), p.Timings(0, 0).ElectionTimeoutRandomDelta)
	})

	t.Run("log value", func(t *testing.T) {
		v := p.LogValue()
		require.Equal(t, slog.KindGroup, v.Kind())
		attrs := map[string]int64{}
		for _, a := range v.Group() {
			attrs[a.Key] = a.Value.Int64()
		}
		assert.Equal(t, int64(150), attrs["max_heartbeat_interval"])
		assert.Equal(t, int64(1000), attrs["snapshot_distance"])
	})
}

// readRegister models a register that is never written: every read must
// observe the value it was constructed with.
var readRegister = porcupine.Model{
	Init: func() interface{} { return ParamsCfg{} },
	Step: func(state, input, output interface{}) (bool, interface{}) {
		if state == (ParamsCfg{}) {
			state = input
		}
		return output == state, state
	},
	DescribeOperation: func(input, output interface{}) string {
		return "read"
	},
}

func TestConcurrentReadsLinearizable(t *testing.T) {
	want := ParamsCfg{
		ElectionTimeoutUpper: 400,
		ElectionTimeoutLower: 200,
		HeartbeatInterval:    100,
		RPCFailureBackoff:    500,
		LogSyncBatchSize:     10,
		LogSyncStopGap:       10,
		SnapshotBlockSize:    4096,
	}
	p := mustParams(t, want)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		history []porcupine.Operation
	)
	for client := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				call := time.Now().UnixNano()
				got := ParamsCfg{
					ElectionTimeoutUpper: p.ElectionTimeoutUpperBound(),
					ElectionTimeoutLower: p.ElectionTimeoutLowerBound(),
					HeartbeatInterval:    p.HeartbeatInterval(),
					RPCFailureBackoff:    p.RPCFailureBackoff(),
					LogSyncBatchSize:     p.LogSyncBatchSize(),
					LogSyncStopGap:       p.LogSyncStopGap(),
					SnapshotDistance:     p.SnapshotDistance(),
					SnapshotBlockSize:    p.SnapshotBlockSize(),
				}
				_ = p.MaxHeartbeatInterval()
				ret := time.Now().UnixNano()

				mu.Lock()
				history = append(history, porcupine.Operation{
					ClientId: client,
					Input:    want,
					Call:     call,
					Output:   got,
					Return:   ret,
				})
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, history, 400)
	assert.True(t, porcupine.CheckOperations(readRegister, history))
	assert.Equal(t, want, p.Config())
}
