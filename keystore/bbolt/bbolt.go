// Package bbolt provides a bbolt-backed keystore.Store with values
// encrypted at rest.
//
// Values are sealed with AES-256-GCM under a key derived from a device
// passphrase via Argon2id. The derived key lives in a memguard Enclave and
// is only opened for the duration of a single seal/open operation. The KDF
// salt and parameters are stored unencrypted in a meta bucket so the key
// can be re-derived on the next launch.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/awnumar/memguard"
	"go.etcd.io/bbolt"

	"github.com/pawtrail/pawtrail-go/internal/util"
	"github.com/pawtrail/pawtrail-go/keystore"
)

var (
	valuesBucket = []byte("values")
	metaBucket   = []byte("meta")
	kdfMetaKey   = []byte("kdf")
)

const saltLen = 16

type kdfMeta struct {
	Salt   []byte              `json:"salt"`
	Params util.Argon2idParams `json:"params"`
}

// Store implements keystore.Store backed by a bbolt database.
type Store struct {
	db  *bbolt.DB
	key *memguard.Enclave
}

var _ keystore.Store = (*Store)(nil)

// Open opens (or creates) the database at path and derives the value
// encryption key from passphrase. First open generates and persists a
// fresh KDF salt; later opens reuse it so previously written values stay
// readable.
func Open(path, passphrase string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}

	meta, err := loadOrCreateKDFMeta(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	rawKey, err := util.DeriveArgon2idKey(util.Normalize(passphrase), meta.Salt, meta.Params)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("deriving keystore key: %w", err)
	}
	// NewEnclave wipes rawKey after sealing it.
	enclave := memguard.NewEnclave(rawKey)

	return &Store{db: db, key: enclave}, nil
}

func loadOrCreateKDFMeta(db *bbolt.DB) (*kdfMeta, error) {
	var meta kdfMeta
	err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(valuesBucket); err != nil {
			return err
		}
		mb, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		if data := mb.Get(kdfMetaKey); data != nil {
			return json.Unmarshal(data, &meta)
		}
		salt, err := util.RandomBytes(saltLen)
		if err != nil {
			return err
		}
		meta = kdfMeta{Salt: salt, Params: util.DefaultArgon2idParams()}
		data, err := json.Marshal(&meta)
		if err != nil {
			return err
		}
		return mb.Put(kdfMetaKey, data)
	})
	if err != nil {
		return nil, fmt.Errorf("initializing keystore metadata: %w", err)
	}
	return &meta, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// seal encrypts value with the enclave-held key.
func (s *Store) seal(value string) ([]byte, error) {
	buf, err := s.key.Open()
	if err != nil {
		return nil, fmt.Errorf("opening key enclave: %w", err)
	}
	defer buf.Destroy()
	return util.SealAES([]byte(value), buf.Bytes())
}

// open decrypts a value produced by seal.
func (s *Store) open(sealed []byte) (string, error) {
	buf, err := s.key.Open()
	if err != nil {
		return "", fmt.Errorf("opening key enclave: %w", err)
	}
	defer buf.Destroy()
	plaintext, err := util.OpenAES(sealed, buf.Bytes())
	if err != nil {
		return "", err
	}
	value := string(plaintext)
	util.WipeBytes(plaintext)
	return value, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var sealed []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(valuesBucket).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s: %w", key, keystore.ErrNotFound)
		}
		sealed = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return s.open(sealed)
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sealed, err := s.seal(value)
	if err != nil {
		return fmt.Errorf("sealing value for %s: %w", key, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(valuesBucket).Put([]byte(key), sealed)
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(valuesBucket).Delete([]byte(key))
	})
}
