package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/backmassage/vidpress/internal/pipeline"
	"github.com/backmassage/vidpress/internal/profile"
)

// RedisPublisher writes run state to Redis.
//
//	<prefix>run:<id>          hash: status, profile, total, completed, failed, bytes
//	<prefix>run:<id>:file:<i> hash: status, percent, output_bytes, output_path, reason
//	<prefix>events            channel: every event as JSON
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedis returns a publisher for the given server. No connection is made
// until the first command; call Ping to fail fast.
func NewRedis(opts RedisOptions) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: PublishTimeout,
	})
	return &RedisPublisher{client: client, prefix: opts.Prefix}
}

// Ping checks the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// RunKey returns the hash key for a run.
func RunKey(prefix, runID string) string { return prefix + "run:" + runID }

// FileKey returns the hash key for one file of a run.
func FileKey(prefix, runID string, index int) string {
	return fmt.Sprintf("%srun:%s:file:%d", prefix, runID, index)
}

// Channel returns the pub/sub channel name.
func Channel(prefix string) string { return prefix + "events" }

// Begin implements Publisher.
func (p *RedisPublisher) Begin(ctx context.Context, runID string, total int, prof profile.ID) error {
	return p.client.HSet(ctx, RunKey(p.prefix, runID), map[string]interface{}{
		"status":     "running",
		"profile":    string(prof),
		"total":      total,
		"completed":  0,
		"failed":     0,
		"started_at": time.Now().Format(time.RFC3339),
	}).Err()
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, ev pipeline.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		runKey := RunKey(p.prefix, ev.RunID)
		if fields := fileFields(ev); fields != nil {
			pipe.HSet(ctx, FileKey(p.prefix, ev.RunID, ev.FileIndex), fields)
		}
		if ev.Kind == pipeline.EventFileDone {
			if ev.Success {
				pipe.HIncrBy(ctx, runKey, "completed", 1)
			} else {
				pipe.HIncrBy(ctx, runKey, "failed", 1)
			}
		}
		if fields := runFields(ev); fields != nil {
			pipe.HSet(ctx, runKey, fields)
		}
		pipe.Publish(ctx, Channel(p.prefix), data)
		return nil
	})
	return err
}

// Close implements Publisher.
func (p *RedisPublisher) Close() error { return p.client.Close() }

// fileFields returns the per-file hash update for ev, or nil.
func fileFields(ev pipeline.Event) map[string]interface{} {
	switch ev.Kind {
	case pipeline.EventProgress:
		return map[string]interface{}{
			"status":  string(ev.Status),
			"percent": ev.Percent,
		}
	case pipeline.EventFileDone:
		f := map[string]interface{}{
			"status":       string(ev.Status),
			"output_bytes": ev.OutputBytes,
		}
		if ev.Success {
			f["percent"] = 100
			f["output_path"] = ev.OutputPath
		} else {
			f["reason"] = ev.Reason
		}
		return f
	case pipeline.EventError:
		return map[string]interface{}{
			"error_stage": string(ev.Stage),
			"error":       ev.Message,
		}
	}
	return nil
}

// runFields returns the run hash update for ev, or nil.
func runFields(ev pipeline.Event) map[string]interface{} {
	if ev.Kind != pipeline.EventBatchDone || ev.Result == nil {
		return nil
	}
	status := "finished"
	if ev.Result.Stopped {
		status = "stopped"
	}
	return map[string]interface{}{
		"status":             status,
		"completed":          ev.Result.Completed,
		"failed":             ev.Result.Failed,
		"total":              ev.Result.Total,
		"total_input_bytes":  ev.Result.TotalInputBytes,
		"total_output_bytes": ev.Result.TotalOutputBytes,
		"finished_at":        ev.Time.Format(time.RFC3339),
	}
}
