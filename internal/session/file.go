package session

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"attractions-web/internal/domain"
)

const envelopeVersion = 1

var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ErrInvalidProfileID is returned for profile IDs that are unsafe as file names.
var ErrInvalidProfileID = errors.New("invalid profile id")

// envelope is the on-disk format of an encrypted session file.
type envelope struct {
	Version int    `json:"v"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Box     []byte `json:"box"`
}

// FileStore keeps one profile's session in <dir>/<profileID>.json.
// With a secret the key map is sealed with NaCl secretbox under an scrypt-derived key.
// A file that cannot be opened or parsed is treated as absent and removed.
// The derived key is kept per salt, so scrypt runs once per store rather than per call.
type FileStore struct {
	mu     sync.Mutex
	path   string
	secret []byte

	salt        []byte
	key         *[32]byte
	derivations int
}

// NewFileStore creates a store for profileID under dir.
func NewFileStore(dir, profileID, secret string) (*FileStore, error) {
	if !profileIDPattern.MatchString(profileID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProfileID, profileID)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}

	s := &FileStore{path: filepath.Join(dir, profileID+".json")}
	if secret != "" {
		s.secret = []byte(secret)
	}
	return s, nil
}

func (s *FileStore) Save(ctx context.Context, session domain.Session) error {
	if !session.Valid() {
		return domain.ErrIncompleteSession
	}

	data, err := json.Marshal(session.Values())
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.secret != nil {
		if data, err = s.sealLocked(data); err != nil {
			return err
		}
	}
	return writeAtomic(s.path, data)
}

func (s *FileStore) Read(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Session{}, nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	if s.secret != nil {
		if data, err = s.openLocked(data); err != nil {
			slog.Warn("discarding unreadable session file",
				slog.String("path", s.path),
				slog.String("error", err.Error()))
			return domain.Session{}, s.removeLocked()
		}
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		slog.Warn("discarding corrupt session file",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return domain.Session{}, s.removeLocked()
	}

	session, ok := domain.SessionFromValues(values)
	if !ok {
		return domain.Session{}, s.removeLocked()
	}
	return session, nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked()
}

func (s *FileStore) removeLocked() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// keyLocked returns the key for salt, deriving it only when salt differs from the cached one.
func (s *FileStore) keyLocked(salt []byte) (*[32]byte, error) {
	if s.key != nil && bytes.Equal(s.salt, salt) {
		return s.key, nil
	}
	raw, err := scrypt.Key(s.secret, salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	s.derivations++

	var key [32]byte
	copy(key[:], raw)
	s.salt = bytes.Clone(salt)
	s.key = &key
	return s.key, nil
}

// sealLocked reuses the cached salt when there is one. The nonce is fresh per write.
func (s *FileStore) sealLocked(plaintext []byte) ([]byte, error) {
	env := envelope{Version: envelopeVersion, Salt: s.salt, Nonce: make([]byte, 24)}
	if env.Salt == nil {
		env.Salt = make([]byte, 16)
		if _, err := rand.Read(env.Salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
	}
	if _, err := rand.Read(env.Nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	key, err := s.keyLocked(env.Salt)
	if err != nil {
		return nil, err
	}
	var nonce [24]byte
	copy(nonce[:], env.Nonce)
	env.Box = secretbox.Seal(nil, plaintext, &nonce, key)

	return json.Marshal(env)
}

func (s *FileStore) openLocked(data []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("not an encrypted session: %w", err)
	}
	if env.Version != envelopeVersion || len(env.Nonce) != 24 || len(env.Salt) == 0 {
		return nil, fmt.Errorf("unsupported session envelope v%d", env.Version)
	}

	key, err := s.keyLocked(env.Salt)
	if err != nil {
		return nil, err
	}
	var nonce [24]byte
	copy(nonce[:], env.Nonce)
	plaintext, ok := secretbox.Open(nil, env.Box, &nonce, key)
	if !ok {
		return nil, errors.New("session file failed authentication")
	}
	return plaintext, nil
}

// writeAtomic replaces path with data through a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
