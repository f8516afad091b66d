package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	tableredis "github.com/playmatatu/pooltable/internal/redis"
	"github.com/playmatatu/pooltable/internal/session"
)

// RemoteCommand is a table command relayed through Redis from another process.
type RemoteCommand struct {
	TableID  string `json:"table_id"` // "*" addresses every table
	Command  string `json:"command"`
	Operator string `json:"operator,omitempty"`
}

// PublishCommand relays a command to whichever process hosts the table.
func PublishCommand(ctx context.Context, rdb *redis.Client, rc RemoteCommand) error {
	if rdb == nil {
		return tableredis.ErrDisabled
	}
	if _, err := session.ParseCommand(rc.Command); err != nil {
		return err
	}
	b, err := json.Marshal(rc)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return rdb.Publish(ctx, tableredis.CommandsChannel, b).Err()
}

// StartCommandSubscriber subscribes to the table_commands channel and submits
// commands addressed to sess.
func StartCommandSubscriber(ctx context.Context, rdb *redis.Client, sess *session.Session, auditor Auditor) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; command subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, tableredis.CommandsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started for table %s", tableredis.CommandsChannel, sess.TableID())
		for {
			select {
			case <-ctx.Done():
				return
			case <-sess.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := handleRemoteCommand(ctx, sess, auditor, msg.Payload); err != nil {
					log.Printf("[WS] remote command rejected: %v", err)
				}
			}
		}
	}()
}

// handleRemoteCommand decodes one payload and submits it when it targets sess.
// Commands for other tables are ignored without error.
func handleRemoteCommand(ctx context.Context, sess *session.Session, auditor Auditor, payload string) error {
	var rc RemoteCommand
	if err := json.Unmarshal([]byte(payload), &rc); err != nil {
		return fmt.Errorf("invalid command payload: %w", err)
	}
	if rc.TableID != sess.TableID() && rc.TableID != "*" {
		return nil
	}

	cmd, err := session.ParseCommand(rc.Command)
	if err != nil {
		return err
	}
	if err := sess.Submit(cmd); err != nil {
		return fmt.Errorf("submit %s: %w", cmd, err)
	}

	operator := rc.Operator
	if operator == "" {
		operator = "redis"
	}
	log.Printf("[WS] remote command %s for table %s from %s", cmd, sess.TableID(), operator)
	if auditor != nil {
		auditor.LogCommand(ctx, operator, sess.TableID(), string(cmd), "redis")
	}
	return nil
}
