package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-solo/internal/entity"
)

// Client publishes game snapshots on one Redis channel per session.
type Client struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client, prefix string) *Client {
	return &Client{
		client: client,
		prefix: prefix,
	}
}

// Channel returns the channel name snapshots of sessionID are published on.
func (that *Client) Channel(sessionID string) string {
	return that.prefix + ":" + sessionID
}

// PublishSnapshot - sends the snapshot as JSON to every subscriber of the session channel.
func (that *Client) PublishSnapshot(ctx context.Context, sessionID string, state entity.GameState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	if err = that.client.Publish(ctx, that.Channel(sessionID), stateJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish game state: %w", err)
	}

	return nil
}

// SubscribeSnapshots - streams snapshots published for sessionID until ctx is done.
// It returns once the subscription is confirmed by the server.
func (that *Client) SubscribeSnapshots(ctx context.Context, sessionID string) (<-chan entity.GameState, error) {
	pubsub := that.client.Subscribe(ctx, that.Channel(sessionID))

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to game state: %w", err)
	}

	states := make(chan entity.GameState)
	go func() {
		defer close(states)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var state entity.GameState
				if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
					continue
				}

				select {
				case states <- state:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return states, nil
}
