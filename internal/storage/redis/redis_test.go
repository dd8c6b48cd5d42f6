package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		password string
		wantAddr string
		wantPass string
		wantDB   int
	}{
		{
			name:     "bare address",
			url:      "cache:6379",
			wantAddr: "cache:6379",
		},
		{
			name:     "url with database",
			url:      "redis://cache:6380/2",
			wantAddr: "cache:6380",
			wantDB:   2,
		},
		{
			name:     "separate password",
			url:      "redis://cache:6379",
			password: "secret",
			wantAddr: "cache:6379",
			wantPass: "secret",
		},
		{
			name:     "password overrides url credentials",
			url:      "redis://:old@cache:6379",
			password: "new",
			wantAddr: "cache:6379",
			wantPass: "new",
		},
		{
			name:     "url credentials kept without override",
			url:      "redis://:old@cache:6379",
			wantAddr: "cache:6379",
			wantPass: "old",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := Options(tt.url, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, opts.Addr)
			assert.Equal(t, tt.wantPass, opts.Password)
			assert.Equal(t, tt.wantDB, opts.DB)
		})
	}
}

func TestOptions_Invalid(t *testing.T) {
	_, err := Options("", "")
	require.Error(t, err)

	_, err = Options("http://cache:6379", "")
	require.Error(t, err)
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewClient(ctx, "127.0.0.1:1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx, "ping")
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(fakePinger{})(context.Background()))

	down := errors.New("connection refused")
	assert.ErrorIs(t, Check(fakePinger{err: down})(context.Background()), down)
}
