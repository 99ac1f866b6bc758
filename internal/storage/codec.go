package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/cchalm/parley/internal/ai"
	"github.com/cchalm/parley/internal/chat"
)

// Backing file layout:
//
//	[0:4]  magic "PRLY"
//	[4:6]  format version, big endian
//	[6:]   gob-encoded snapshot
var magic = [4]byte{'P', 'R', 'L', 'Y'}

const (
	formatVersion uint16 = 1
	headerSize           = len(magic) + 2
)

type snapshot struct {
	APIClients []clientRecord
	Chats      []chatRecord
}

type clientRecord struct {
	Endpoint string
	APIKey   string
	Models   []string
}

type chatRecord struct {
	ID        int64
	Model     string
	Messages  []messageRecord
	Timestamp time.Time
}

// Senders are stored by name so that the numbering of chat.Sender is free to change
type messageRecord struct {
	Sender    string
	Content   string
	Timestamp time.Time
}

func encode(clients []ai.APIClient, chats []chat.Chat) ([]byte, error) {
	snap := snapshot{
		APIClients: make([]clientRecord, 0, len(clients)),
		Chats:      make([]chatRecord, 0, len(chats)),
	}
	for _, c := range clients {
		snap.APIClients = append(snap.APIClients, clientRecord{
			Endpoint: c.Endpoint,
			APIKey:   c.APIKey,
			Models:   c.Models,
		})
	}
	for _, c := range chats {
		record := chatRecord{
			ID:        c.ID,
			Model:     c.Model,
			Messages:  make([]messageRecord, 0, len(c.Messages)),
			Timestamp: c.Timestamp,
		}
		for i, m := range c.Messages {
			if !m.Sender.Valid() {
				return nil, fmt.Errorf("chat %d message %d has invalid sender %s", c.ID, i, m.Sender)
			}
			record.Messages = append(record.Messages, messageRecord{
				Sender:    m.Sender.String(),
				Content:   m.Content,
				Timestamp: m.Timestamp,
			})
		}
		snap.Chats = append(snap.Chats, record)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	_ = binary.Write(&buf, binary.BigEndian, formatVersion)
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(b []byte) ([]ai.APIClient, []chat.Chat, error) {
	if len(b) < headerSize || !bytes.Equal(b[:len(magic)], magic[:]) {
		return nil, nil, fmt.Errorf("not a parley store")
	}
	version := binary.BigEndian.Uint16(b[len(magic):headerSize])
	if version != formatVersion {
		return nil, nil, fmt.Errorf("unsupported format version %d (expected %d)", version, formatVersion)
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(b[headerSize:])).Decode(&snap); err != nil {
		return nil, nil, err
	}

	clients := make([]ai.APIClient, 0, len(snap.APIClients))
	for _, r := range snap.APIClients {
		models := r.Models
		if models == nil {
			models = []string{}
		}
		clients = append(clients, ai.NewAPIClient(r.Endpoint, r.APIKey, models))
	}

	chats := make([]chat.Chat, 0, len(snap.Chats))
	for _, r := range snap.Chats {
		c := chat.Chat{
			ID:        r.ID,
			Model:     r.Model,
			Messages:  make([]chat.Message, 0, len(r.Messages)),
			Timestamp: r.Timestamp,
		}
		for i, m := range r.Messages {
			sender, err := chat.ParseSender(m.Sender)
			if err != nil {
				return nil, nil, fmt.Errorf("chat %d message %d: %w", r.ID, i, err)
			}
			c.Messages = append(c.Messages, chat.Message{
				Sender:    sender,
				Content:   m.Content,
				Timestamp: m.Timestamp,
			})
		}
		chats = append(chats, c)
	}
	return clients, chats, nil
}
