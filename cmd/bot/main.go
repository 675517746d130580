package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"botbridge.gg/internal/protocol"
)

// Demo bot: handshakes, watches ticks, and wanders its avatar around.
func main() {
	var (
		url      = flag.String("url", "ws://localhost:8085/v1/ws", "ws url")
		name     = flag.String("name", "bot", "bot name")
		clientID = flag.Int64("client", 1, "client id")
		secret   = flag.String("secret", "", "session secret (or BB_SESSION_SECRET)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	sessionSecret := *secret
	if sessionSecret == "" {
		sessionSecret = os.Getenv("BB_SESSION_SECRET")
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hs, err := protocol.NewClientMessage(*clientID, "", protocol.TypeHandshake, protocol.ClientHandshake{
		BotName:       *name,
		Spawnable:     true,
		Lifecycle:     protocol.LifecycleManaged,
		ClientToken:   uuid.NewString(),
		SessionSecret: sessionSecret,
	})
	if err != nil {
		logger.Fatalf("build handshake: %v", err)
	}
	if err := conn.WriteJSON(hs); err != nil {
		logger.Fatalf("send handshake: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	serverToken := ""
	for {
		select {
		case <-stop:
			bye, _ := protocol.NewClientMessage(*clientID, serverToken, protocol.TypeTeardown, struct{}{})
			_ = conn.WriteJSON(bye)
			return
		default:
		}

		var msg protocol.ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case protocol.TypeHandshake:
			var ack protocol.ServerHandshake
			if err := json.Unmarshal(msg.Data, &ack); err != nil {
				continue
			}
			serverToken = ack.ServerToken
			logger.Printf("handshaked, serverToken=%s", ack.ServerToken)

		case protocol.TypeTickInfo:
			var ti protocol.TickInfo
			if err := json.Unmarshal(msg.Data, &ti); err != nil {
				continue
			}
			handleTick(conn, logger, *clientID, serverToken, &ti)

		case protocol.TypeTeardown:
			logger.Printf("server requested teardown")
			return
		}
	}
}

func handleTick(conn *websocket.Conn, logger *log.Logger, clientID int64, serverToken string, ti *protocol.TickInfo) {
	me, ok := findMyEntity(clientID, ti)
	if !ok {
		return
	}
	pos, _ := me.Position()

	// Wander every few ticks.
	if ti.Tick%200 == 0 {
		r := rand.New(rand.NewSource(ti.Tick + time.Now().UnixNano()))
		req, err := protocol.NewClientMessage(clientID, serverToken, protocol.TypeActionRequest, protocol.ActionRequest{
			Action: "MoveTo",
			Input: map[string]any{
				"x": pos.X + float64(r.Intn(15)-7),
				"y": pos.Y,
				"z": pos.Z + float64(r.Intn(15)-7),
			},
		})
		if err != nil {
			return
		}
		_ = conn.WriteJSON(req)
	}

	// Report a trivial health check once in a while.
	if ti.Tick%1000 == 0 {
		result, err := protocol.NewClientMessage(clientID, serverToken, protocol.TypeValidationResult, protocol.ValidationResult{
			Name:    fmt.Sprintf("has_position_tick_%d", ti.Tick),
			Passed:  true,
			Message: fmt.Sprintf("pos=%v", pos),
		})
		if err != nil {
			return
		}
		_ = conn.WriteJSON(result)
		logger.Printf("tick %d pos=%v entities=%d", ti.Tick, pos, len(ti.Entities))
	}
}

func findMyEntity(clientID int64, ti *protocol.TickInfo) (protocol.EntityState, bool) {
	for _, state := range ti.Entities {
		if owner, ok := state.ClientID(); ok && owner == clientID {
			return state, true
		}
	}
	return nil, false
}
