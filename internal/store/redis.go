package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyRows = "rows:%s"

// RedisBackend stores each table as a list of JSON encoded rows, header first.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) ReadRows(ctx context.Context, sheet string) ([][]string, error) {
	items, err := b.client.LRange(ctx, fmt.Sprintf(keyRows, sheet), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	rows := make([][]string, 0, len(items))
	for i, item := range items {
		var row []string
		if err := json.Unmarshal([]byte(item), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row %d of %s: %w", i, sheet, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (b *RedisBackend) AppendRow(ctx context.Context, sheet string, row []string) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}
	return b.client.RPush(ctx, fmt.Sprintf(keyRows, sheet), data).Err()
}

func (b *RedisBackend) UpdateRow(ctx context.Context, sheet string, index int, row []string) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}
	return b.client.LSet(ctx, fmt.Sprintf(keyRows, sheet), int64(index+1), data).Err()
}

var writeHeaderScript = redis.NewScript(`
	local key = KEYS[1]
	if redis.call("LLEN", key) == 0 then
		redis.call("RPUSH", key, ARGV[1])
	else
		redis.call("LSET", key, 0, ARGV[1])
	end
	return "OK"
`)

func (b *RedisBackend) WriteHeader(ctx context.Context, sheet string, header []string) error {
	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	return writeHeaderScript.Run(ctx, b.client, []string{fmt.Sprintf(keyRows, sheet)}, string(data)).Err()
}

// DropTable removes a table. Used to clean up after tests.
func (b *RedisBackend) DropTable(ctx context.Context, sheet string) error {
	return b.client.Del(ctx, fmt.Sprintf(keyRows, sheet)).Err()
}
