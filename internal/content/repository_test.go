package content

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/huongkhe/schoolsite/internal/docstore"
	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
	"github.com/huongkhe/schoolsite/internal/infrastructure/database"
	"github.com/huongkhe/schoolsite/internal/validation"
	"github.com/huongkhe/schoolsite/migrations"
)

func testStore(t *testing.T) docstore.Store {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	database.MigrationsFS = migrations.FS
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return docstore.NewSQLiteStore(db.DB)
}

// steppingClock returns a clock that advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var start = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func validNews(title string) NewsInput {
	return NewsInput{
		Title:   title,
		Excerpt: "Tóm tắt bản tin của trường",
		Content: "Nội dung chi tiết của bản tin, đủ dài để hợp lệ.",
		Author:  "Ban biên tập",
	}
}

func TestRepository_CreateGet(t *testing.T) {
	repo := NewRepository(NewsKind, testStore(t), WithClock(steppingClock(start, time.Second)))
	ctx := context.Background()

	created, err := repo.Create(ctx, validNews("Lễ khai giảng"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create() should assign an id")
	}
	if created.Category != DefaultCategory {
		t.Errorf("Category = %q, want default %q", created.Category, DefaultCategory)
	}
	if !created.CreatedAt.Equal(start) || !created.UpdatedAt.Equal(start) {
		t.Errorf("timestamps = %v/%v, want %v", created.CreatedAt, created.UpdatedAt, start)
	}

	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != created.ID || got.Title != created.Title || got.Category != created.Category {
		t.Errorf("Get() = %+v, want %+v", *got, *created)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestRepository_GetMissing(t *testing.T) {
	repo := NewRepository(ClubKind, testStore(t))
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_ListOrderAndPaging(t *testing.T) {
	repo := NewRepository(NewsKind, testStore(t),
		WithClock(steppingClock(start, time.Minute)),
		WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	for _, title := range []string{"Bản tin một", "Bản tin hai", "Bản tin ba"} {
		if _, err := repo.Create(ctx, validNews(title)); err != nil {
			t.Fatalf("Create(%s) error = %v", title, err)
		}
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"newest first", ListOptions{}, []string{"id-3", "id-2", "id-1"}},
		{"ascending", ListOptions{Ascending: true}, []string{"id-1", "id-2", "id-3"}},
		{"limit", ListOptions{Limit: 2}, []string{"id-3", "id-2"}},
		{"second page", ListOptions{Limit: 2, Offset: 2}, []string{"id-1"}},
		{"search", ListOptions{Search: "HAI"}, []string{"id-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() returned %d records, want %d", len(got), len(tt.want))
			}
			for i, n := range got {
				if n.ID != tt.want[i] {
					t.Errorf("List()[%d].ID = %q, want %q", i, n.ID, tt.want[i])
				}
			}
		})
	}
}

func TestRepository_EventsSortByDate(t *testing.T) {
	repo := NewRepository(EventKind, testStore(t), WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	for _, date := range []string{"2026-05-01T08:00:00Z", "2026-09-05T07:30:00+07:00", "2026-01-10T08:00:00Z"} {
		_, err := repo.Create(ctx, EventInput{
			Title:       "Sự kiện của trường",
			Description: "Mô tả sự kiện trong năm học",
			Date:        date,
			Location:    "Sân trường",
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := repo.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"id-2", "id-1", "id-3"}
	for i, e := range got {
		if e.ID != want[i] {
			t.Errorf("List()[%d].ID = %q, want %q", i, e.ID, want[i])
		}
	}
}

func TestRepository_UpdateMergesAndTouches(t *testing.T) {
	repo := NewRepository(NewsKind, testStore(t), WithClock(steppingClock(start, 0)))
	ctx := context.Background()

	created, err := repo.Create(ctx, validNews("Tin ban đầu"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// The clock is frozen, so updatedAt must still move forward.
	prev := created.UpdatedAt
	for range 2 {
		updated, err := repo.Update(ctx, created.ID, func(in *NewsInput) error {
			in.Title = "Tin đã cập nhật"
			return nil
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Title != "Tin đã cập nhật" {
			t.Errorf("Title = %q", updated.Title)
		}
		if updated.Excerpt != created.Excerpt || updated.Author != created.Author {
			t.Error("Update() should leave other fields unchanged")
		}
		if !updated.CreatedAt.Equal(created.CreatedAt) || updated.ID != created.ID {
			t.Error("Update() should keep id and createdAt")
		}
		if !updated.UpdatedAt.After(prev) {
			t.Errorf("UpdatedAt = %v, want after %v", updated.UpdatedAt, prev)
		}
		prev = updated.UpdatedAt
	}

	got, _ := repo.Get(ctx, created.ID)
	if !got.UpdatedAt.Equal(prev) {
		t.Errorf("stored UpdatedAt = %v, want %v", got.UpdatedAt, prev)
	}
}

func TestRepository_UpdateMergeErrorAborts(t *testing.T) {
	repo := NewRepository(ClubKind, testStore(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, ClubInput{Name: "CLB Cờ vua", Description: "Câu lạc bộ cờ vua của trường"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sentinel := errors.New("rejected")
	_, err = repo.Update(ctx, created.ID, func(in *ClubInput) error {
		in.Name = "changed"
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Update() error = %v, want merge error", err)
	}

	got, _ := repo.Get(ctx, created.ID)
	if got.Name != "CLB Cờ vua" {
		t.Errorf("Name = %q, update should not have been stored", got.Name)
	}
}

func TestRepository_UpdateMissing(t *testing.T) {
	repo := NewRepository(TeacherKind, testStore(t))
	_, err := repo.Update(context.Background(), "nope", func(*TeacherInput) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(GalleryKind, testStore(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, GalleryInput{Title: "Sân trường", ImageURL: "https://img.example/1.jpg"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_DuplicateIDRejected(t *testing.T) {
	repo := NewRepository(ClubKind, testStore(t), WithIDGenerator(func() string { return "fixed" }))
	ctx := context.Background()
	in := ClubInput{Name: "CLB Văn học", Description: "Câu lạc bộ yêu văn học"}

	if _, err := repo.Create(ctx, in); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.Create(ctx, in); !errors.Is(err, docstore.ErrRejected) {
		t.Errorf("Create() duplicate error = %v, want docstore.ErrRejected", err)
	}
}

func TestInputValidation(t *testing.T) {
	v, err := validation.New(ValidatorOptions()...)
	if err != nil {
		t.Fatalf("validation.New() error = %v", err)
	}

	tests := []struct {
		name   string
		input  any
		fields []string
	}{
		{"valid news", validNews("Tin hợp lệ"), nil},
		{"short news title", validNews("abc"), []string{"title"}},
		{"bad news category", func() NewsInput {
			n := validNews("Tin hợp lệ")
			n.Category = "Thể thao"
			return n
		}(), []string{"category"}},
		{"teacher missing email and bad phone", TeacherInput{
			Name: "Nguyễn Văn A", Subject: "Toán", Phone: "abc",
		}, []string{"email", "phone"}},
		{"negative members", ClubInput{
			Name: "CLB Bóng đá", Description: "Câu lạc bộ bóng đá", Members: -1,
		}, []string{"members"}},
		{"event end before start", EventInput{
			Title: "Hội thao", Description: "Hội thao toàn trường",
			Date: "2026-04-10T08:00:00Z", EndDate: "2026-04-09T08:00:00Z", Location: "Sân vận động",
		}, []string{"endDate"}},
		{"event bad date", EventInput{
			Title: "Hội thao", Description: "Hội thao toàn trường",
			Date: "10/04/2026", Location: "Sân vận động",
		}, []string{"date"}},
		{"gallery missing url", GalleryInput{Title: "Ảnh", Category: "Cơ sở vật chất"}, []string{"imageUrl"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.fields == nil {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}
			var verrs validation.Errors
			if !errors.As(err, &verrs) {
				t.Fatalf("Struct() error = %v, want validation.Errors", err)
			}
			got := verrs.Fields()
			if len(got) != len(tt.fields) {
				t.Fatalf("fields = %v, want %v", got, tt.fields)
			}
			for i := range got {
				if got[i] != tt.fields[i] {
					t.Errorf("fields = %v, want %v", got, tt.fields)
				}
			}
		})
	}
}
