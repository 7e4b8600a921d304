// Package complaints is a small customer-support complaint book used by
// the demo chatbots. It exists so the agents have realistic function tools
// to exercise; complaints persist in a kv store across runs.
package complaints

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/huddle01/ai01-go/pkg/kv"
	"github.com/huddle01/ai01-go/pkg/tools"
)

var keyPrefix = kv.Key{"complaints"}

// Complaint is one entry of the complaint book.
type Complaint struct {
	ID               int       `msgpack:"id" json:"complaint_id"`
	Name             string    `msgpack:"name" json:"name"`
	Complaint        string    `msgpack:"complaint" json:"complaint"`
	ResolutionPeriod string    `msgpack:"resolution_period" json:"resolution_period"`
	CreatedAt        time.Time `msgpack:"created_at" json:"created_at"`
}

// Book stores complaints in a kv store.
type Book struct {
	store kv.Store
}

// NewBook creates a complaint book over the given store.
func NewBook(store kv.Store) *Book {
	return &Book{store: store}
}

// Add files a complaint and returns its generated four-digit ID. The
// resolution period is picked arbitrarily, as a real support queue would
// feel to the customer.
func (b *Book) Add(ctx context.Context, name, complaint string) (*Complaint, error) {
	id, err := b.freeID(ctx)
	if err != nil {
		return nil, err
	}

	var period string
	if rand.Intn(2) == 0 {
		period = fmt.Sprintf("%d days", 1+rand.Intn(7))
	} else {
		period = fmt.Sprintf("%d hours", 1+rand.Intn(24))
	}

	c := &Complaint{
		ID:               id,
		Name:             name,
		Complaint:        complaint,
		ResolutionPeriod: period,
		CreatedAt:        time.Now().UTC(),
	}
	if err := kv.PutRecord(ctx, b.store, b.key(id), c); err != nil {
		return nil, fmt.Errorf("complaints: store: %w", err)
	}
	return c, nil
}

// Get looks a complaint up by ID.
func (b *Book) Get(ctx context.Context, id int) (*Complaint, error) {
	var c Complaint
	if err := kv.GetRecord(ctx, b.store, b.key(id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// All iterates the complaint book.
func (b *Book) All(ctx context.Context) func(yield func(kv.Key, Complaint, error) bool) {
	return kv.Records[Complaint](ctx, b.store, keyPrefix)
}

func (b *Book) key(id int) kv.Key {
	return append(keyPrefix[:len(keyPrefix):len(keyPrefix)], strconv.Itoa(id))
}

// freeID picks an unused four-digit complaint ID.
func (b *Book) freeID(ctx context.Context) (int, error) {
	for range 64 {
		id := 1000 + rand.Intn(9000)
		_, err := b.store.Get(ctx, b.key(id))
		if errors.Is(err, kv.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, errors.New("complaints: no free complaint IDs")
}

// Seed inserts the demo entries when the book is empty, so voice sessions
// have something to look up right away.
func (b *Book) Seed(ctx context.Context) error {
	for _, c := range []Complaint{
		{ID: 1234, Name: "Chad", Complaint: "chat in the app is not working", ResolutionPeriod: "3 hours"},
		{ID: 5678, Name: "Brad", Complaint: "I am not able to login", ResolutionPeriod: "2 days"},
	} {
		_, err := b.store.Get(ctx, b.key(c.ID))
		if err == nil {
			continue
		}
		if !errors.Is(err, kv.ErrNotFound) {
			return err
		}
		c.CreatedAt = time.Now().UTC()
		if err := kv.PutRecord(ctx, b.store, b.key(c.ID), &c); err != nil {
			return fmt.Errorf("complaints: seed: %w", err)
		}
	}
	return nil
}

// Tools returns the complaint book as model function tools.
func (b *Book) Tools() []*tools.Tool {
	type addArgs struct {
		Name      string `json:"name" jsonschema:"Name of the person whose complaint is to be stored."`
		Complaint string `json:"complaint" jsonschema:"Complaint of the person."`
	}
	add := tools.Must("add_complaint",
		"Store the name and complaint of a person in the complaint book.",
		func(ctx context.Context, arg addArgs) (any, error) {
			c, err := b.Add(ctx, arg.Name, arg.Complaint)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"response":     "Stored the name and complaint successfully",
				"complaint_id": c.ID,
			}, nil
		})

	type getArgs struct {
		ComplaintID int `json:"complaint_id" jsonschema:"Complaint ID of the person whose complaint is to be retrieved."`
	}
	get := tools.Must("get_complaint_details",
		"Get the complaint and resolution period of the complaint of a person from the complaint book.",
		func(ctx context.Context, arg getArgs) (any, error) {
			c, err := b.Get(ctx, arg.ComplaintID)
			if errors.Is(err, kv.ErrNotFound) {
				return map[string]string{"error": "Complaint ID not found in the complaint book"}, nil
			}
			if err != nil {
				return nil, err
			}
			return c, nil
		})

	return []*tools.Tool{add, get}
}
