package store

import (
	"os"
	"testing"
	"time"

	"github.com/starford/fihrist/internal/model"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "fihrist-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func entity(user, kind, id, arabicText, stripped string) *model.Entity {
	now := time.Now()
	return &model.Entity{
		Ref:       model.Ref{Kind: model.Kind(kind), ID: id},
		UserID:    user,
		Arabic:    arabicText,
		Stripped:  stripped,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"entities", "entity_links", "backlinks", "verse_captures"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndGetEntity(t *testing.T) {
	db := testDB(t)
	e := entity("u1", "word", "w1", "كِتَاب", "كتاب")
	e.Meanings = []string{"book", "scripture"}
	if err := db.UpsertEntity(e); err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}

	got, err := db.GetEntity("u1", e.Ref)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got == nil || got.Arabic != "كِتَاب" || got.Stripped != "كتاب" {
		t.Errorf("unexpected entity: %+v", got)
	}
	if len(got.Meanings) != 2 || got.Meanings[0] != "book" {
		t.Errorf("meanings = %v", got.Meanings)
	}
}

func TestGetEntityUserScoped(t *testing.T) {
	db := testDB(t)
	e := entity("u1", "word", "w1", "كتاب", "كتاب")
	if err := db.UpsertEntity(e); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetEntity("u2", e.Ref)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got != nil {
		t.Errorf("other user's entity should be invisible, got %+v", got)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	db := testDB(t)
	e := entity("u1", "word", "w1", "كتاب", "كتاب")
	_ = db.UpsertEntity(e)
	e.Title = "updated"
	if err := db.UpsertEntity(e); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, _ := db.GetEntity("u1", e.Ref)
	if got.Title != "updated" {
		t.Errorf("title = %q, want updated", got.Title)
	}
	all, _ := db.ListEntities("u1", model.KindWord)
	if len(all) != 1 {
		t.Errorf("expected 1 row after replace, got %d", len(all))
	}
}

func TestLinkInsertAndHydration(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntity(entity("u1", "word", "w1", "كتاب", "كتاب"))
	_ = db.UpsertEntity(entity("u1", "root", "r1", "", ""))

	l := &model.EntityLink{
		UserID:       "u1",
		Source:       model.Ref{Kind: model.KindWord, ID: "w1"},
		Target:       model.Ref{Kind: model.KindRoot, ID: "r1"},
		Relationship: model.RelDerivedFrom,
		CreatedAt:    time.Now(),
	}
	id, err := db.InsertLink(l)
	if err != nil {
		t.Fatalf("InsertLink: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero link id")
	}

	out, err := db.LinksFrom("u1", l.Source)
	if err != nil {
		t.Fatalf("LinksFrom: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 outgoing link, got %d", len(out))
	}
	if out[0].Entity == nil || out[0].Entity.ID != "r1" {
		t.Errorf("target hydration missing: %+v", out[0])
	}

	in, err := db.LinksTo("u1", l.Target)
	if err != nil {
		t.Fatalf("LinksTo: %v", err)
	}
	if len(in) != 1 || in[0].Entity == nil || in[0].Entity.ID != "w1" {
		t.Errorf("source hydration missing: %+v", in)
	}
}

func TestLinkHydrationNullForVanishedEntity(t *testing.T) {
	db := testDB(t)
	l := &model.EntityLink{
		UserID:       "u1",
		Source:       model.Ref{Kind: model.KindWord, ID: "w1"},
		Target:       model.Ref{Kind: model.KindWord, ID: "gone"},
		Relationship: model.RelRelated,
		CreatedAt:    time.Now(),
	}
	if _, err := db.InsertLink(l); err != nil {
		t.Fatal(err)
	}
	out, err := db.LinksFrom("u1", l.Source)
	if err != nil {
		t.Fatalf("LinksFrom: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("edge to vanished entity must still be returned, got %d", len(out))
	}
	if out[0].Entity != nil {
		t.Errorf("expected nil hydration, got %+v", out[0].Entity)
	}
}

func TestDeleteLinksForEntityBothDirections(t *testing.T) {
	db := testDB(t)
	a := model.Ref{Kind: model.KindWord, ID: "a"}
	b := model.Ref{Kind: model.KindWord, ID: "b"}
	c := model.Ref{Kind: model.KindWord, ID: "c"}
	for _, pair := range [][2]model.Ref{{a, b}, {c, a}, {b, c}} {
		_, err := db.InsertLink(&model.EntityLink{
			UserID: "u1", Source: pair[0], Target: pair[1],
			Relationship: model.RelRelated, CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := db.DeleteLinksForEntity("u1", a); err != nil {
		t.Fatalf("DeleteLinksForEntity: %v", err)
	}
	if out, _ := db.LinksFrom("u1", a); len(out) != 0 {
		t.Errorf("outgoing from a not removed: %+v", out)
	}
	if in, _ := db.LinksTo("u1", a); len(in) != 0 {
		t.Errorf("incoming to a not removed: %+v", in)
	}
	// Unrelated edge survives.
	if out, _ := db.LinksFrom("u1", b); len(out) != 1 {
		t.Errorf("b->c edge should survive, got %+v", out)
	}
}

func TestReplaceBacklinksSupersedes(t *testing.T) {
	db := testDB(t)
	two := []model.Backlink{
		{UserID: "u1", NoteID: "n1", Target: model.Ref{Kind: model.KindWord, ID: "w1"}},
		{UserID: "u1", NoteID: "n1", Target: model.Ref{Kind: model.KindVerse, ID: "v1"}},
	}
	if err := db.ReplaceBacklinks("u1", "n1", two); err != nil {
		t.Fatalf("ReplaceBacklinks: %v", err)
	}

	one := two[:1]
	if err := db.ReplaceBacklinks("u1", "n1", one); err != nil {
		t.Fatalf("second ReplaceBacklinks: %v", err)
	}

	bl, err := db.BacklinksFor("u1", model.Ref{Kind: model.KindWord, ID: "w1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bl) != 1 {
		t.Errorf("expected exactly 1 backlink, got %d", len(bl))
	}
	gone, _ := db.BacklinksFor("u1", model.Ref{Kind: model.KindVerse, ID: "v1"})
	if len(gone) != 0 {
		t.Errorf("superseded backlink still present: %+v", gone)
	}
}

func TestBacklinksCountMany(t *testing.T) {
	db := testDB(t)
	w1 := model.Ref{Kind: model.KindWord, ID: "w1"}
	w2 := model.Ref{Kind: model.KindWord, ID: "w2"}
	_ = db.ReplaceBacklinks("u1", "n1", []model.Backlink{{UserID: "u1", NoteID: "n1", Target: w1}})
	_ = db.ReplaceBacklinks("u1", "n2", []model.Backlink{{UserID: "u1", NoteID: "n2", Target: w1}})

	counts, err := db.BacklinksCountMany("u1", []model.Ref{w1, w2})
	if err != nil {
		t.Fatalf("BacklinksCountMany: %v", err)
	}
	if counts["word:w1"] != 2 {
		t.Errorf("w1 count = %d, want 2", counts["word:w1"])
	}
	if counts["word:w2"] != 0 {
		t.Errorf("w2 count = %d, want 0", counts["word:w2"])
	}
}

func TestCapturesForSurah(t *testing.T) {
	db := testDB(t)
	for _, c := range []model.VerseCapture{
		{UserID: "u1", Surah: 2, AyahStart: 255, CreatedAt: time.Now()},
		{UserID: "u1", Surah: 2, AyahStart: 1, AyahEnd: 5, CreatedAt: time.Now()},
		{UserID: "u1", Surah: 3, AyahStart: 1, CreatedAt: time.Now()},
		{UserID: "u2", Surah: 2, AyahStart: 255, CreatedAt: time.Now()},
	} {
		capture := c
		if _, err := db.InsertCapture(&capture); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.CapturesForSurah("u1", 2)
	if err != nil {
		t.Fatalf("CapturesForSurah: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 captures for u1 surah 2, got %d", len(got))
	}

	one, err := db.GetCapture("u1", got[0].ID)
	if err != nil {
		t.Fatalf("GetCapture: %v", err)
	}
	if one == nil || one.AyahStart != got[0].AyahStart {
		t.Errorf("GetCapture = %+v, want %+v", one, got[0])
	}
	if foreign, _ := db.GetCapture("u2", got[0].ID); foreign != nil {
		t.Error("GetCapture should not cross users")
	}
}
