// client/main.go
//
// Minimal interactive client for poking at the server from a terminal.
//
//	create            create a room
//	join ABCD         join room ABCD
//	start             start the game
//	play R-7          play a card
//	draw              draw from the deck
//	color R           choose a color after a wild
//	color4 R          choose a color after a wild draw four
//	leave / end / lobby
//
// Anything else is sent as room chat.
package main

import (
	"bufio"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Action string                 `json:"action"`
	GameID string                 `json:"game_id,omitempty"`
	Extra  map[string]interface{} `json:"extra,omitempty"`
}

func send(c *websocket.Conn, env envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("marshal: %v", err)
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("write: %v", err)
	}
}

func turn(c *websocket.Conn, action, card string) {
	send(c, envelope{
		Action: "process_turn",
		Extra:  map[string]interface{}{"action": action, "card": card},
	})
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	name := "tester"
	if len(os.Args) > 1 {
		name = os.Args[1]
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     "localhost:8080",
		Path:     "/ws",
		RawQuery: "name=" + url.QueryEscape(name),
	}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("<- %s", message)
		}
	}()

	// Input loop
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			fields := strings.Fields(line)
			arg := ""
			if len(fields) > 1 {
				arg = fields[1]
			}

			switch fields[0] {
			case "create":
				send(c, envelope{Action: "create_game"})
			case "join":
				send(c, envelope{Action: "join_game", GameID: arg})
			case "start":
				send(c, envelope{Action: "start_game"})
			case "leave":
				send(c, envelope{Action: "leave_game"})
			case "end":
				send(c, envelope{Action: "end_game"})
			case "lobby":
				send(c, envelope{Action: "back_to_lobby"})
			case "status":
				send(c, envelope{Action: "status_check"})
			case "draw":
				turn(c, "draw_card_from_middle", "")
			case "play":
				turn(c, "play_card", arg)
			case "color":
				turn(c, "change_color_with_wild", arg)
			case "color4":
				turn(c, "change_color_with_wild_and_draw4", arg)
			default:
				send(c, envelope{Action: "chat", Extra: map[string]interface{}{"text": line}})
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("Interrupted, closing connection.")
		c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
