package content

import (
	"time"

	"github.com/huongkhe/schoolsite/internal/validation"
)

// Category values accepted by news and gallery items.
var (
	NewsCategories    = []string{"Hoạt động", "Thông báo", "Gương sáng"}
	GalleryCategories = []string{"Sự kiện", "Hoạt động", "Cơ sở vật chất"}
)

// DefaultCategory is used when news or gallery input omits a category.
const DefaultCategory = "Hoạt động"

// ValidatorOptions registers the content enums with a validation.Validator.
func ValidatorOptions() []validation.Option {
	return []validation.Option{
		validation.WithEnum("newscategory", NewsCategories...),
		validation.WithEnum("gallerycategory", GalleryCategories...),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ─── News ───────────────────────────────────────────────────────────

// News is a published article.
type News struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Category  string    `json:"category"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewsInput is the writable part of News.
type NewsInput struct {
	Title    string `json:"title" validate:"required,min=5,max=200"`
	Excerpt  string `json:"excerpt" validate:"required,min=10,max=500"`
	Content  string `json:"content" validate:"required,min=20"`
	ImageURL string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Category string `json:"category,omitempty" validate:"omitempty,newscategory"`
	Author   string `json:"author" validate:"required,min=2,max=100"`
}

// NewsKind describes the news collection. updatedAt strictly increases on
// every update.
var NewsKind = Kind[News, NewsInput]{
	Collection: "news",
	Event:      "news",
	Label:      "News",
	New: func(id string, createdAt time.Time, in NewsInput) News {
		return News{
			ID:        id,
			Title:     in.Title,
			Excerpt:   in.Excerpt,
			Content:   in.Content,
			ImageURL:  in.ImageURL,
			Category:  orDefault(in.Category, DefaultCategory),
			Author:    in.Author,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
	},
	Input: func(n News) NewsInput {
		return NewsInput{
			Title:    n.Title,
			Excerpt:  n.Excerpt,
			Content:  n.Content,
			ImageURL: n.ImageURL,
			Category: n.Category,
			Author:   n.Author,
		}
	},
	Meta: func(n News) Meta {
		return Meta{ID: n.ID, CreatedAt: n.CreatedAt, SortKey: n.CreatedAt}
	},
	Touch: func(prev, next *News, now time.Time) {
		if !now.After(prev.UpdatedAt) {
			now = prev.UpdatedAt.Add(time.Millisecond)
		}
		next.UpdatedAt = now
	},
}

// ─── Teachers ───────────────────────────────────────────────────────

// Teacher is a staff profile.
type Teacher struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Subject    string    `json:"subject"`
	Position   string    `json:"position,omitempty"`
	Department string    `json:"department,omitempty"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TeacherInput is the writable part of Teacher.
type TeacherInput struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Subject    string `json:"subject" validate:"required,min=2,max=100"`
	Position   string `json:"position,omitempty" validate:"omitempty,max=100"`
	Department string `json:"department,omitempty" validate:"omitempty,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,phone"`
	ImageURL   string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Bio        string `json:"bio,omitempty" validate:"omitempty,min=10,max=2000"`
}

// TeacherKind describes the teachers collection.
var TeacherKind = Kind[Teacher, TeacherInput]{
	Collection: "teachers",
	Event:      "teacher",
	Label:      "Teacher",
	New: func(id string, createdAt time.Time, in TeacherInput) Teacher {
		return Teacher{
			ID:         id,
			Name:       in.Name,
			Subject:    in.Subject,
			Position:   in.Position,
			Department: in.Department,
			Email:      in.Email,
			Phone:      in.Phone,
			ImageURL:   in.ImageURL,
			Bio:        in.Bio,
			CreatedAt:  createdAt,
		}
	},
	Input: func(t Teacher) TeacherInput {
		return TeacherInput{
			Name:       t.Name,
			Subject:    t.Subject,
			Position:   t.Position,
			Department: t.Department,
			Email:      t.Email,
			Phone:      t.Phone,
			ImageURL:   t.ImageURL,
			Bio:        t.Bio,
		}
	},
	Meta: func(t Teacher) Meta {
		return Meta{ID: t.ID, CreatedAt: t.CreatedAt, SortKey: t.CreatedAt}
	},
}

// ─── Clubs ──────────────────────────────────────────────────────────

// Club is a student club.
type Club struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Members     int       `json:"members"`
	Schedule    string    `json:"schedule,omitempty"`
	Leader      string    `json:"leader,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ClubInput is the writable part of Club.
type ClubInput struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"required,min=10,max=500"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Members     int    `json:"members" validate:"gte=0"`
	Schedule    string `json:"schedule,omitempty" validate:"omitempty,max=200"`
	Leader      string `json:"leader,omitempty" validate:"omitempty,min=2,max=100"`
}

// ClubKind describes the clubs collection.
var ClubKind = Kind[Club, ClubInput]{
	Collection: "clubs",
	Event:      "club",
	Label:      "Club",
	New: func(id string, createdAt time.Time, in ClubInput) Club {
		return Club{
			ID:          id,
			Name:        in.Name,
			Description: in.Description,
			ImageURL:    in.ImageURL,
			Members:     in.Members,
			Schedule:    in.Schedule,
			Leader:      in.Leader,
			CreatedAt:   createdAt,
		}
	},
	Input: func(c Club) ClubInput {
		return ClubInput{
			Name:        c.Name,
			Description: c.Description,
			ImageURL:    c.ImageURL,
			Members:     c.Members,
			Schedule:    c.Schedule,
			Leader:      c.Leader,
		}
	},
	Meta: func(c Club) Meta {
		return Meta{ID: c.ID, CreatedAt: c.CreatedAt, SortKey: c.CreatedAt}
	},
}

// ─── Events ─────────────────────────────────────────────────────────

// Event is a school calendar entry. Listings are ordered by Date.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Date        time.Time  `json:"date"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Location    string     `json:"location"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// EventInput is the writable part of Event. Dates are ISO 8601 strings.
type EventInput struct {
	Title       string `json:"title" validate:"required,min=5,max=200"`
	Description string `json:"description" validate:"required,min=10"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Date        string `json:"date" validate:"required,datetime8601"`
	EndDate     string `json:"endDate,omitempty" validate:"omitempty,datetime8601,notbefore=Date"`
	Location    string `json:"location" validate:"required,min=5"`
	Category    string `json:"category,omitempty" validate:"omitempty,max=50"`
}

// EventKind describes the events collection. New expects validated input;
// an unparseable date becomes the zero time.
var EventKind = Kind[Event, EventInput]{
	Collection: "events",
	Event:      "event",
	Label:      "Event",
	New: func(id string, createdAt time.Time, in EventInput) Event {
		e := Event{
			ID:          id,
			Title:       in.Title,
			Description: in.Description,
			ImageURL:    in.ImageURL,
			Location:    in.Location,
			Category:    in.Category,
			CreatedAt:   createdAt,
		}
		e.Date, _ = time.Parse(validation.ISO8601, in.Date) //nolint:errcheck // validated by datetime8601
		if in.EndDate != "" {
			if end, err := time.Parse(validation.ISO8601, in.EndDate); err == nil {
				e.EndDate = &end
			}
		}
		return e
	},
	Input: func(e Event) EventInput {
		in := EventInput{
			Title:       e.Title,
			Description: e.Description,
			ImageURL:    e.ImageURL,
			Date:        e.Date.Format(time.RFC3339Nano),
			Location:    e.Location,
			Category:    e.Category,
		}
		if e.EndDate != nil {
			in.EndDate = e.EndDate.Format(time.RFC3339Nano)
		}
		return in
	},
	Meta: func(e Event) Meta {
		return Meta{ID: e.ID, CreatedAt: e.CreatedAt, SortKey: e.Date}
	},
}

// ─── Gallery ────────────────────────────────────────────────────────

// GalleryItem is one image in the photo gallery.
type GalleryItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ImageURL    string    `json:"imageUrl"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GalleryInput is the writable part of GalleryItem.
type GalleryInput struct {
	Title       string `json:"title" validate:"required,min=3,max=100"`
	ImageURL    string `json:"imageUrl" validate:"required,url"`
	Category    string `json:"category,omitempty" validate:"omitempty,gallerycategory"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// GalleryKind describes the gallery collection.
var GalleryKind = Kind[GalleryItem, GalleryInput]{
	Collection: "gallery",
	Event:      "gallery",
	Label:      "Image",
	New: func(id string, createdAt time.Time, in GalleryInput) GalleryItem {
		return GalleryItem{
			ID:          id,
			Title:       in.Title,
			ImageURL:    in.ImageURL,
			Category:    orDefault(in.Category, DefaultCategory),
			Description: in.Description,
			CreatedAt:   createdAt,
		}
	},
	Input: func(g GalleryItem) GalleryInput {
		return GalleryInput{
			Title:       g.Title,
			ImageURL:    g.ImageURL,
			Category:    g.Category,
			Description: g.Description,
		}
	},
	Meta: func(g GalleryItem) Meta {
		return Meta{ID: g.ID, CreatedAt: g.CreatedAt, SortKey: g.CreatedAt}
	},
}

// Collections lists the store collection of every resource kind.
func Collections() []string {
	return []string{
		NewsKind.Collection,
		TeacherKind.Collection,
		ClubKind.Collection,
		EventKind.Collection,
		GalleryKind.Collection,
	}
}
