package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

func sampleResult() *core.ModerationResult {
	return &core.ModerationResult{
		IsAcceptable:  false,
		Level:         core.LevelWarning,
		SeverityScore: 0.61,
		Issues: []core.Issue{
			{Type: core.IssueInsult, Score: 0.61, Source: core.LayerClassifier},
		},
		UserMessage:  "toned down",
		AnalyzedText: "some text",
		LayersUsed:   []core.Layer{core.LayerClassifier},
	}
}

func TestRedisCacheGetHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client, time.Hour, zap.NewNop())

	stored := sampleResult()
	data, err := json.Marshal(stored)
	require.NoError(t, err)
	mock.ExpectGet("moderation:some text").SetVal(string(data))

	result, found := c.Get(context.Background(), "some text")

	require.True(t, found)
	assert.Equal(t, core.LevelWarning, result.Level)
	assert.Equal(t, stored.Issues, result.Issues)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheGetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client, time.Hour, zap.NewNop())

	mock.ExpectGet("moderation:absent").RedisNil()

	_, found := c.Get(context.Background(), "absent")
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheGetCorruptEntryIsMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client, time.Hour, zap.NewNop())

	mock.ExpectGet("moderation:bad").SetVal("{not json")

	_, found := c.Get(context.Background(), "bad")
	assert.False(t, found)
}

func TestRedisCacheSet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client, 30*time.Minute, zap.NewNop())

	result := sampleResult()
	data, err := json.Marshal(result)
	require.NoError(t, err)
	mock.ExpectSet("moderation:some text", data, 30*time.Minute).SetVal("OK")

	require.NoError(t, c.Set(context.Background(), "some text", result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheRemove(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client, time.Hour, zap.NewNop())

	mock.ExpectDel("moderation:gone").SetVal(1)

	require.NoError(t, c.Remove(context.Background(), "gone"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheClear(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client, time.Hour, zap.NewNop())

	mock.ExpectScan(0, "moderation:*", 100).SetVal([]string{"moderation:a", "moderation:b"}, 0)
	mock.ExpectDel("moderation:a", "moderation:b").SetVal(2)

	require.NoError(t, c.Clear(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
