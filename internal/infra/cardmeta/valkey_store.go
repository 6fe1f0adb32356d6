package cardmeta

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/undownding/city-card/internal/domain/card"
)

// ValkeyStore persists card descriptors in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a descriptor store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "card"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Save stores the descriptor under its object key with optional TTL.
func (s *ValkeyStore) Save(ctx context.Context, d card.Descriptor, ttl time.Duration) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.metaKey(d.ObjectKey)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

// Get fetches the descriptor for an object key.
func (s *ValkeyStore) Get(ctx context.Context, objectKey string) (card.Descriptor, bool, error) {
	cmd := s.client.B().Get().Key(s.metaKey(objectKey)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return card.Descriptor{}, false, nil
		}
		return card.Descriptor{}, false, err
	}
	var desc card.Descriptor
	if err := json.Unmarshal([]byte(payload), &desc); err != nil {
		return card.Descriptor{}, false, err
	}
	return desc, true, nil
}

func (s *ValkeyStore) metaKey(objectKey string) string {
	return s.prefix + ":meta:" + objectKey
}

var _ card.DescriptorStore = (*ValkeyStore)(nil)
