package internal

import (
	"database/sql"
	"sort"

	"gorm.io/gorm"

	"github.com/dmitrymomot/edgekit/pkg/ai"
	"github.com/dmitrymomot/edgekit/pkg/kv"
	"github.com/dmitrymomot/edgekit/pkg/queue"
	"github.com/dmitrymomot/edgekit/pkg/ratelimit"
	"github.com/dmitrymomot/edgekit/pkg/session"
	"github.com/dmitrymomot/edgekit/pkg/storage"
)

// Binding names a configured platform resource. The names match the ones
// used in the bindings manifest and appear in ConfigError messages.
type Binding string

const (
	BindingKV    Binding = "KV"
	BindingFS    Binding = "FS"
	BindingDB    Binding = "DB"
	BindingQueue Binding = "QUEUE"
	BindingAI    Binding = "AI"
)

// Bindings is the capability set fixed at startup. Every event carrier is
// built from the same Bindings; the handles must be safe for concurrent use.
type Bindings struct {
	KV        kv.Store
	FS        storage.Bucket
	DB        *sql.DB
	ORM       *gorm.DB
	Queue     queue.Producer
	AI        ai.Runner
	Counter   ratelimit.Counter
	Sessions  session.Storage
	Vars      map[string]string
	QueueName string
}

// Has reports whether the binding was configured.
func (b *Bindings) Has(name Binding) bool {
	if b == nil {
		return false
	}
	switch name {
	case BindingKV:
		return b.KV != nil
	case BindingFS:
		return b.FS != nil
	case BindingDB:
		return b.DB != nil
	case BindingQueue:
		return b.Queue != nil
	case BindingAI:
		return b.AI != nil
	}
	return false
}

// Names lists the configured bindings in sorted order.
func (b *Bindings) Names() []string {
	var names []string
	for _, n := range []Binding{BindingKV, BindingFS, BindingDB, BindingQueue, BindingAI} {
		if b.Has(n) {
			names = append(names, string(n))
		}
	}
	sort.Strings(names)
	return names
}
