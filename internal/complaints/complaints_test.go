package complaints_test

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/huddle01/ai01-go/internal/complaints"
	"github.com/huddle01/ai01-go/pkg/kv"
	"github.com/huddle01/ai01-go/pkg/tools"
)

func newBook(t *testing.T) *complaints.Book {
	t.Helper()
	store := kv.NewMemory(nil)
	t.Cleanup(func() { store.Close() })
	return complaints.NewBook(store)
}

func TestAddAndGet(t *testing.T) {
	ctx := context.Background()
	book := newBook(t)

	c, err := book.Add(ctx, "Chad", "chat in the app is not working")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID < 1000 || c.ID > 9999 {
		t.Fatalf("complaint ID %d out of range", c.ID)
	}
	if !strings.HasSuffix(c.ResolutionPeriod, "days") && !strings.HasSuffix(c.ResolutionPeriod, "hours") {
		t.Fatalf("unexpected resolution period %q", c.ResolutionPeriod)
	}

	got, err := book.Get(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Chad" || got.Complaint != c.Complaint {
		t.Fatalf("got %+v, want %+v", got, c)
	}
}

func TestGetUnknownID(t *testing.T) {
	book := newBook(t)
	if _, err := book.Get(context.Background(), 4242); err == nil {
		t.Fatal("expected error for unknown complaint ID")
	}
}

func TestUniqueIDs(t *testing.T) {
	ctx := context.Background()
	book := newBook(t)

	seen := map[int]bool{}
	for range 50 {
		c, err := book.Add(ctx, "Brad", "I am not able to login")
		if err != nil {
			t.Fatal(err)
		}
		if seen[c.ID] {
			t.Fatalf("duplicate complaint ID %d", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestAll(t *testing.T) {
	ctx := context.Background()
	book := newBook(t)

	for range 3 {
		if _, err := book.Add(ctx, "Chad", "no audio"); err != nil {
			t.Fatal(err)
		}
	}
	n := 0
	for _, _, err := range book.All(ctx) {
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 3 {
		t.Fatalf("got %d complaints, want 3", n)
	}
}

func TestSeedIdempotent(t *testing.T) {
	ctx := context.Background()
	book := newBook(t)

	if err := book.Seed(ctx); err != nil {
		t.Fatal(err)
	}
	if err := book.Seed(ctx); err != nil {
		t.Fatal(err)
	}

	c, err := book.Get(ctx, 1234)
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "Chad" || c.ResolutionPeriod != "3 hours" {
		t.Fatalf("unexpected seed entry %+v", c)
	}
	if _, err := book.Get(ctx, 5678); err != nil {
		t.Fatal(err)
	}
}

func TestTools(t *testing.T) {
	ctx := context.Background()
	book := newBook(t)
	reg := tools.NewRegistry(book.Tools()...)

	out, err := reg.Dispatch(ctx, "add_complaint",
		`{"name":"Chad","complaint":"chat in the app is not working"}`)
	if err != nil {
		t.Fatal(err)
	}
	var added struct {
		Response    string `json:"response"`
		ComplaintID int    `json:"complaint_id"`
	}
	if err := json.Unmarshal([]byte(out), &added); err != nil {
		t.Fatal(err)
	}
	if added.ComplaintID < 1000 || added.ComplaintID > 9999 {
		t.Fatalf("complaint ID %d out of range", added.ComplaintID)
	}

	out, err = reg.Dispatch(ctx, "get_complaint_details",
		`{"complaint_id":`+strconv.Itoa(added.ComplaintID)+`}`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "chat in the app is not working") {
		t.Fatalf("complaint details missing from %q", out)
	}

	out, err = reg.Dispatch(ctx, "get_complaint_details", `{"complaint_id":1}`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "not found") {
		t.Fatalf("expected not-found response, got %q", out)
	}
}
