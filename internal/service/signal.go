package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/fdwmarket/marketd"
)

// SignalService fans account events out over redis pubsub.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event marketd.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, "events:"+channel, jsonstr).Err()
	if err != nil {
		return err

	}

	return nil
}

// Realtime relays events for the channels received on input to output until
// the context is done. Each call owns its own subscription. Neither channel
// is closed here: shutdown is signaled by cancelling ctx.
func (s *SignalService) Realtime(ctx context.Context, input chan []string, output chan marketd.Event) {
	pubsub := s.rdb.Subscribe(ctx)
	defer pubsub.Close()

	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case channels, ok := <-input:
			if !ok {
				return
			}
			prefixed := make([]string, 0, len(channels))
			for _, ch := range channels {
				prefixed = append(prefixed, "events:"+ch)
			}
			if err := pubsub.Subscribe(ctx, prefixed...); err != nil {
				return
			}
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event marketd.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			// the receiver may be gone already; never block past cancellation
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
