package handler

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionPolicy decides what happens when an identity opens another connection.
type SessionPolicy string

const (
	// PolicySingle is last-writer-wins: a new connection displaces every
	// earlier connection of the same identity from its private channel.
	PolicySingle SessionPolicy = "single"
	// PolicyMulti keeps up to MaxConnectionsPerUser concurrent connections.
	PolicyMulti SessionPolicy = "multi"

	privateChannelPrefix = "user_"
)

// ErrTooManyConnections is returned by Register under PolicyMulti when the cap is reached.
var ErrTooManyConnections = errors.New("too many connections for user")

// ParseSessionPolicy maps a config value to a policy, defaulting to PolicySingle.
func ParseSessionPolicy(value string) SessionPolicy {
	if strings.EqualFold(strings.TrimSpace(value), string(PolicyMulti)) {
		return PolicyMulti
	}
	return PolicySingle
}

// ChannelFor returns the private channel of an identity. It needs no lookup,
// so targeted delivery works whether or not the identity is registered.
func ChannelFor(userID uint) string {
	return privateChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ConnectionInfo is the registry entry of one live connection.
type ConnectionInfo struct {
	ID       uuid.UUID
	UserID   uint
	JoinedAt time.Time
}

// Registry tracks which identity owns which live connections.
// It is process-local and safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	policy     SessionPolicy
	maxPerUser int
	conns      map[uint]map[uuid.UUID]ConnectionInfo
	now        func() time.Time
}

// NewRegistry builds a registry. maxPerUser only applies to PolicyMulti.
func NewRegistry(policy SessionPolicy, maxPerUser int) *Registry {
	if maxPerUser <= 0 {
		maxPerUser = 1
	}
	return &Registry{
		policy:     policy,
		maxPerUser: maxPerUser,
		conns:      make(map[uint]map[uuid.UUID]ConnectionInfo),
		now:        time.Now,
	}
}

// Policy returns the configured session policy.
func (r *Registry) Policy() SessionPolicy {
	return r.policy
}

// Register records connID for userID. Under PolicySingle every previous
// connection of userID is dropped and returned as displaced.
func (r *Registry) Register(userID uint, connID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.conns[userID]
	var displaced []uuid.UUID

	switch r.policy {
	case PolicyMulti:
		if _, ok := existing[connID]; !ok && len(existing) >= r.maxPerUser {
			return nil, ErrTooManyConnections
		}
	default:
		for id := range existing {
			if id != connID {
				displaced = append(displaced, id)
			}
		}
		if len(displaced) > 0 {
			existing = nil
		}
	}

	if existing == nil {
		existing = make(map[uuid.UUID]ConnectionInfo)
		r.conns[userID] = existing
	}
	existing[connID] = ConnectionInfo{ID: connID, UserID: userID, JoinedAt: r.now()}

	return displaced, nil
}

// Unregister removes connID from userID and returns how many connections the
// identity still has. Removing an unknown connection is a no-op, so a stale
// transport closing late never erases a newer mapping.
func (r *Registry) Unregister(userID uint, connID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	userConns, ok := r.conns[userID]
	if !ok {
		return 0
	}
	delete(userConns, connID)
	if len(userConns) == 0 {
		delete(r.conns, userID)
		return 0
	}
	return len(userConns)
}

// UnregisterAll drops every connection of userID (logout) and returns their ids.
func (r *Registry) UnregisterAll(userID uint) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	userConns := r.conns[userID]
	ids := make([]uuid.UUID, 0, len(userConns))
	for id := range userConns {
		ids = append(ids, id)
	}
	delete(r.conns, userID)
	return ids
}

// Connections lists the live connections of userID, oldest first.
func (r *Registry) Connections(userID uint) []ConnectionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConns := r.conns[userID]
	result := make([]ConnectionInfo, 0, len(userConns))
	for _, info := range userConns {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})
	return result
}

// IsRegistered reports whether connID is the live mapping (or one of them) for userID.
func (r *Registry) IsRegistered(userID uint, connID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conns[userID][connID]
	return ok
}

// IsOnline reports whether userID has at least one registered connection.
func (r *Registry) IsOnline(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns[userID]) > 0
}

// Stats returns the number of online identities and registered connections.
func (r *Registry) Stats() (users int, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, userConns := range r.conns {
		connections += len(userConns)
	}
	return len(r.conns), connections
}
