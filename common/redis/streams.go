package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// StreamMessage Redis Streams 消息
type StreamMessage struct {
	Stream string
	ID     string
	Values map[string]interface{}
}

// Data 返回 PublishJSONToStream 写入的 data 字段
func (m StreamMessage) Data() string {
	if v, ok := m.Values["data"].(string); ok {
		return v
	}
	return ""
}

// PublishJSONToStream 发布 JSON 消息到 Redis Streams
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream string, data interface{}) (string, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(jsonBytes),
			"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		},
	}).Result()
}

// EnsureConsumerGroup 创建消费者组（stream 不存在时一并创建），组已存在视为成功
func EnsureConsumerGroup(ctx context.Context, client *redis.Client, stream, groupName string) error {
	err := client.XGroupCreateMkStream(ctx, stream, groupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", groupName, stream, err)
	}
	return nil
}

// ReadFromStream 从 Redis Streams 读取消息
// start 为 "0" 时读取本消费者未确认的消息，为空时读取新消息（">"）
// block < 0 表示不阻塞
func ReadFromStream(ctx context.Context, client *redis.Client, stream, consumerGroup, consumer, start string, count int64, block time.Duration) ([]StreamMessage, error) {
	if start == "" {
		start = ">"
	}
	streams, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    consumerGroup,
		Consumer: consumer,
		Streams:  []string{stream, start},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return []StreamMessage{}, nil
		}
		return nil, err
	}

	var messages []StreamMessage
	for _, s := range streams {
		for _, msg := range s.Messages {
			messages = append(messages, StreamMessage{
				Stream: s.Stream,
				ID:     msg.ID,
				Values: msg.Values,
			})
		}
	}
	return messages, nil
}

// AckAndDelete 确认并删除已处理消息
func AckAndDelete(ctx context.Context, client *redis.Client, stream, consumerGroup string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := client.XAck(ctx, stream, consumerGroup, ids...).Err(); err != nil {
		return err
	}
	return client.XDel(ctx, stream, ids...).Err()
}

// StreamLength 返回 stream 中的消息数
func StreamLength(ctx context.Context, client *redis.Client, stream string) (int64, error) {
	return client.XLen(ctx, stream).Result()
}
