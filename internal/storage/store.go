// Package storage persists chats and API credentials to a single file
package storage

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/cchalm/parley/internal/ai"
	"github.com/cchalm/parley/internal/chat"
)

var (
	// ErrIO is matched by failures to open, create, read or write the backing file
	ErrIO = errors.New("store i/o error")
	// ErrDecode is matched when the backing file does not contain a valid store
	ErrDecode = errors.New("store decode error")
	// ErrEncode is matched when the store could not be serialized
	ErrEncode = errors.New("store encode error")
)

// Store holds every chat and credential known to parley. It is not safe for concurrent use, and nothing guards against
// two processes sharing one backing file.
type Store struct {
	path string

	APIClients []ai.APIClient
	Chats      []chat.Chat

	logger *log.Logger
}

type Option func(*Store)

// WithLogger sets the logger used for trace output
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates an empty store backed by the file at path. Nothing is read until Load is called.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:       path,
		APIClients: []ai.APIClient{},
		Chats:      []chat.Chat{},
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) AddAPIClient(client ai.APIClient) {
	s.logger.Printf("adding api client for %s", client.Endpoint)
	s.APIClients = append(s.APIClients, client)
}

// AddChat appends c without checking whether its ID is already in use; see UpdateChat and NextChatID
func (s *Store) AddChat(c chat.Chat) {
	s.logger.Printf("adding chat %d", c.ID)
	s.Chats = append(s.Chats, c)
}

// UpdateChat replaces the chat with the same ID in place, or appends c if there is none
func (s *Store) UpdateChat(c chat.Chat) {
	for i := range s.Chats {
		if s.Chats[i].ID == c.ID {
			s.Chats[i] = c
			return
		}
	}
	s.AddChat(c)
}

// Chat returns the first chat with the given ID
func (s *Store) Chat(id int64) (chat.Chat, bool) {
	for _, c := range s.Chats {
		if c.ID == id {
			return c, true
		}
	}
	return chat.Chat{}, false
}

// NextChatID returns an ID greater than that of every stored chat
func (s *Store) NextChatID() int64 {
	var maxID int64
	for _, c := range s.Chats {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	return maxID + 1
}

// APIClient returns the credential entry at index i
func (s *Store) APIClient(i int) (ai.APIClient, bool) {
	if i < 0 || i >= len(s.APIClients) {
		return ai.APIClient{}, false
	}
	return s.APIClients[i], true
}

// Save writes the whole store to filename. The file is created and then written in one go; a crash part way through
// leaves a truncated file behind.
func (s *Store) Save(filename string) error {
	s.logger.Printf("saving store to %s", filename)
	b, err := encode(s.APIClients, s.Chats)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w: %w", ErrEncode, err)
	}
	// Credentials are stored in plain text, so keep the file private to its owner
	err = os.WriteFile(filename, b, 0600)
	if err != nil {
		return fmt.Errorf("failed to write file: %w: %w", ErrIO, err)
	}
	s.logger.Printf("saved %d chats and %d api clients to %s", len(s.Chats), len(s.APIClients), filename)
	return nil
}

// Load replaces the in-memory chats and credentials with the contents of the backing file. On error the store is left
// unchanged.
func (s *Store) Load() error {
	s.logger.Printf("loading store from %s", s.path)
	b, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w: %w", ErrIO, err)
	}
	clients, chats, err := decode(b)
	if err != nil {
		return fmt.Errorf("failed to decode store: %w: %w", ErrDecode, err)
	}
	s.APIClients = clients
	s.Chats = chats
	s.logger.Printf("loaded %d chats and %d api clients from %s", len(s.Chats), len(s.APIClients), s.path)
	return nil
}

// LoadOrInit is like Load, but treats a missing backing file as an empty store
func (s *Store) LoadOrInit() error {
	err := s.Load()
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Printf("no store at %s, starting empty", s.path)
		return nil
	}
	return err
}
