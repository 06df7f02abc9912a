package notify

import (
	"context"

	commonredis "firefly/common/redis"

	"github.com/go-redis/redis/v8"
)

const streamMaxLen = 10000

// StreamNotifier 写入 Redis Stream，字段 data（事件 JSON）与 timestamp
type StreamNotifier struct {
	c      redis.Cmdable
	stream string
}

func NewStreamNotifier(c redis.Cmdable, stream string) *StreamNotifier {
	return &StreamNotifier{c: c, stream: stream}
}

func (s *StreamNotifier) Name() string { return "redis-stream" }

func (s *StreamNotifier) Notify(ctx context.Context, ev Event) error {
	_, err := commonredis.PublishJSONToStream(ctx, s.c, s.stream, streamMaxLen, ev)
	return err
}
