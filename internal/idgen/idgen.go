// Package idgen issues primary keys for users, posts and comments.
package idgen

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nrednav/cuid2"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/ksuid"
)

// Strategy names accepted by New.
const (
	UUID   = "uuid"
	ULID   = "ulid"
	KSUID  = "ksuid"
	NanoID = "nanoid"
	CUID2  = "cuid2"
)

const (
	nanoIDSize     = 21
	nanoIDAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	cuid2Length    = 24
)

// Generator creates and checks entity ids.
type Generator interface {
	Generate() (string, error)
	Validate(id string) (bool, string) // (valid, reason)
}

// New returns the generator for strategy. An empty strategy means uuid.
func New(strategy string) (Generator, error) {
	switch strings.ToLower(strategy) {
	case "", UUID:
		return uuidGen{}, nil
	case ULID:
		return ulidGen{}, nil
	case KSUID:
		return ksuidGen{}, nil
	case NanoID:
		return nanoidGen{size: nanoIDSize, alphabet: nanoIDAlphabet}, nil
	case CUID2:
		gen, err := cuid2.Init(cuid2.WithLength(cuid2Length))
		if err != nil {
			return nil, fmt.Errorf("failed to init CUID2 generator: %w", err)
		}
		return cuid2Gen{generate: gen}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy: %s", strategy)
	}
}

// MustNew is New for strategies known at compile time.
func MustNew(strategy string) Generator {
	g, err := New(strategy)
	if err != nil {
		panic(err)
	}
	return g
}

type uuidGen struct{}

func (uuidGen) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id.String(), nil
}

func (uuidGen) Validate(id string) (bool, string) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false, fmt.Sprintf("invalid UUID format: %v", err)
	}
	if parsed.Version() != 4 {
		return false, fmt.Sprintf("expected UUID v4, got v%d", parsed.Version())
	}
	return true, ""
}

// ulidGen ids sort by creation time, which keeps post ids in feed order.
type ulidGen struct{}

func (ulidGen) Generate() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

func (ulidGen) Validate(id string) (bool, string) {
	if len(id) != ulid.EncodedSize {
		return false, fmt.Sprintf("expected length %d, got %d", ulid.EncodedSize, len(id))
	}
	if _, err := ulid.Parse(id); err != nil {
		return false, fmt.Sprintf("invalid ULID format: %v", err)
	}
	return true, ""
}

type ksuidGen struct{}

func (ksuidGen) Generate() (string, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate KSUID: %w", err)
	}
	return id.String(), nil
}

func (ksuidGen) Validate(id string) (bool, string) {
	if len(id) != 27 {
		return false, fmt.Sprintf("expected length 27, got %d", len(id))
	}
	if _, err := ksuid.Parse(id); err != nil {
		return false, fmt.Sprintf("invalid KSUID format: %v", err)
	}
	return true, ""
}

type nanoidGen struct {
	size     int
	alphabet string
}

func (g nanoidGen) Generate() (string, error) {
	id, err := gonanoid.Generate(g.alphabet, g.size)
	if err != nil {
		return "", fmt.Errorf("failed to generate NanoID: %w", err)
	}
	return id, nil
}

func (g nanoidGen) Validate(id string) (bool, string) {
	if len(id) != g.size {
		return false, fmt.Sprintf("expected length %d, got %d", g.size, len(id))
	}
	for _, c := range id {
		if !strings.ContainsRune(g.alphabet, c) {
			return false, fmt.Sprintf("character '%c' not in alphabet", c)
		}
	}
	return true, ""
}

type cuid2Gen struct {
	generate func() string
}

func (g cuid2Gen) Generate() (string, error) {
	return g.generate(), nil
}

func (g cuid2Gen) Validate(id string) (bool, string) {
	if len(id) != cuid2Length {
		return false, fmt.Sprintf("expected length %d, got %d", cuid2Length, len(id))
	}
	if !cuid2.IsCuid(id) {
		return false, "invalid CUID2 format"
	}
	return true, ""
}
