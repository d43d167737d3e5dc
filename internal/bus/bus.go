// Package bus connects the assistant to a websocket message bus: other
// shards send utterances (text or recorded audio) and get replies back.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	KindUtterance = "utterance"
	KindReply     = "reply"
)

// ErrBadMessage marks a frame that is not a valid Message. The connection
// stays usable.
var ErrBadMessage = errors.New("bad bus message")

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Audio   []byte `json:"audio,omitempty"`
}

type Bus struct {
	conn *ws.Conn
	url  string
	name string
	wmu  sync.Mutex
}

// Dial connects to the bus at url and identifies outgoing messages as name.
func Dial(ctx context.Context, url, name string) (*Bus, error) {
	log.Debug("Dialing bus", "url", url)
	conn, _, err := ws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	log.Info("Connected to bus", "url", url)
	return &Bus{conn: conn, url: url, name: name}, nil
}

func (b *Bus) Name() string { return b.name }

// Read blocks for the next message. Cancelling ctx unblocks it.
func (b *Bus) Read(ctx context.Context) (*Message, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = b.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, raw, err := b.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	log.Debug("Read bus", "msg", string(raw))

	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	return &m, nil
}

func (b *Bus) Write(m *Message) error {
	if m.From == "" {
		m.From = b.name
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.wmu.Lock()
	defer b.wmu.Unlock()
	return b.conn.WriteMessage(ws.TextMessage, data)
}

func (b *Bus) Close() error {
	b.wmu.Lock()
	_ = b.conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(time.Second))
	b.wmu.Unlock()
	return b.conn.Close()
}

func IsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
