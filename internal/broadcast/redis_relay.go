package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/redis/go-redis/v9"
)

const defaultRelayChannel = "lantern:broadcast"

type relayEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RedisRelay publishes events on a Redis channel so every process sharing
// the channel delivers them to its own local broker.
type RedisRelay struct {
	client  *redis.Client
	channel string
	local   *Broker
	logger  *log.Logger
}

// NewRedisRelay constructs a relay.
func NewRedisRelay(client *redis.Client, channel string, local *Broker, logger *log.Logger) (*RedisRelay, error) {
	if client == nil {
		return nil, errors.New("redis relay: nil client")
	}
	if local == nil {
		return nil, errors.New("redis relay: nil broker")
	}
	if channel == "" {
		channel = defaultRelayChannel
	}
	return &RedisRelay{client: client, channel: channel, local: local, logger: logger}, nil
}

// Emit implements Emitter. When Redis is unreachable the event is delivered locally only.
func (r *RedisRelay) Emit(ctx context.Context, event string, payload any) {
	if r == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	body, err := json.Marshal(relayEnvelope{Event: event, Data: data})
	if err != nil {
		return
	}
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		if r.logger != nil {
			r.logger.Printf("broadcast relay publish error: event=%s err=%v", event, err)
		}
		r.local.Publish(event, data)
	}
}

// Run forwards relayed events to the local broker until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	if r == nil {
		return errors.New("redis relay: nil relay")
	}
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				if r.logger != nil {
					r.logger.Printf("broadcast relay decode error: %v", err)
				}
				continue
			}
			if env.Event == "" {
				continue
			}
			r.local.Publish(env.Event, env.Data)
		}
	}
}
