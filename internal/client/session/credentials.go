package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/cardkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
)

const saltSize = 16

// CredentialStore keeps the bearer credential and signing secret in the
// local key/value store. With a passphrase, values are sealed at rest with
// a key derived from the passphrase and a per-store random salt.
type CredentialStore struct {
	repo       metadata.Repository
	passphrase []byte

	mu  sync.Mutex
	key []byte
}

func NewCredentialStore(repo metadata.Repository, passphrase string) *CredentialStore {
	s := &CredentialStore{repo: repo}
	if passphrase != "" {
		s.passphrase = []byte(passphrase)
	}
	return s
}

// Token returns the stored bearer credential, or "" when there is none.
// A value that cannot be unsealed yields common.ErrInvalidToken.
func (s *CredentialStore) Token(ctx context.Context) (string, error) {
	return s.get(ctx, common.AuthTokenKey)
}

func (s *CredentialStore) SigningSecret(ctx context.Context) (string, error) {
	return s.get(ctx, common.SigningSecretKey)
}

// Save stores both values in one write group. An empty secret removes any
// previous one.
func (s *CredentialStore) Save(ctx context.Context, token, secret string) error {
	sealedToken, err := s.seal(ctx, common.AuthTokenKey, token)
	if err != nil {
		return err
	}
	var sealedSecret []byte
	if secret != "" {
		if sealedSecret, err = s.seal(ctx, common.SigningSecretKey, secret); err != nil {
			return err
		}
	}

	return s.atomic(ctx, func(ctx context.Context, r metadata.Repository) error {
		if err := r.Set(ctx, common.AuthTokenKey, sealedToken); err != nil {
			return fmt.Errorf("write token: %w", err)
		}
		if sealedSecret == nil {
			return r.Delete(ctx, common.SigningSecretKey)
		}
		if err := r.Set(ctx, common.SigningSecretKey, sealedSecret); err != nil {
			return fmt.Errorf("write signing secret: %w", err)
		}
		return nil
	})
}

// Clear removes the bearer credential and the signing secret.
func (s *CredentialStore) Clear(ctx context.Context) error {
	return s.atomic(ctx, func(ctx context.Context, r metadata.Repository) error {
		if err := r.Delete(ctx, common.AuthTokenKey); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
		if err := r.Delete(ctx, common.SigningSecretKey); err != nil {
			return fmt.Errorf("delete signing secret: %w", err)
		}
		return nil
	})
}

func (s *CredentialStore) atomic(ctx context.Context, fn func(ctx context.Context, r metadata.Repository) error) error {
	if a, ok := s.repo.(metadata.Atomic); ok {
		return a.Atomic(ctx, fn)
	}
	return fn(ctx, s.repo)
}

func (s *CredentialStore) get(ctx context.Context, key string) (string, error) {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if len(raw) == 0 {
		return "", nil
	}
	if s.passphrase == nil {
		return string(raw), nil
	}

	k, err := s.sealKey(ctx)
	if err != nil {
		return "", err
	}
	plain, err := cryptox.Open(raw, k)
	if err != nil {
		return "", fmt.Errorf("unseal %s: %w", key, common.ErrInvalidToken)
	}
	return string(plain), nil
}

func (s *CredentialStore) seal(ctx context.Context, key, value string) ([]byte, error) {
	data := []byte(value)
	if s.passphrase == nil {
		return data, nil
	}
	k, err := s.sealKey(ctx)
	if err != nil {
		return nil, err
	}
	data, err = cryptox.Seal(data, k)
	if err != nil {
		return nil, fmt.Errorf("seal %s: %w", key, err)
	}
	return data, nil
}

// sealKey derives the sealing key once, creating the salt on first use.
func (s *CredentialStore) sealKey(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	salt, err := s.repo.Get(ctx, common.CredentialSaltKey)
	if err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	if len(salt) == 0 {
		salt = common.GenerateRandByteArray(saltSize)
		if err := s.repo.Set(ctx, common.CredentialSaltKey, salt); err != nil {
			return nil, fmt.Errorf("write salt: %w", err)
		}
	}

	s.key = cryptox.DeriveKey(s.passphrase, salt)
	return s.key, nil
}
