package validation

import (
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type sample struct {
	Title    string `json:"title" validate:"required,min=5,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Members  int    `json:"members" validate:"min=0"`
	Category string `json:"category" validate:"omitempty,colour"`
	Start    string `json:"start" validate:"required,datetime8601"`
	End      string `json:"end" validate:"omitempty,datetime8601,notbefore=Start"`
	Password string `json:"password"`
	Confirm  string `json:"confirm" validate:"eqfield=Password"`
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(
		WithEnum("colour", "Đỏ", "Xanh lá"),
		WithMessage("confirm", "eqfield", "Passwords don't match"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return v
}

func validSample() sample {
	return sample{
		Title:    "Hello world",
		Members:  3,
		Category: "Xanh lá",
		Start:    "2026-03-01T08:00:00Z",
		End:      "2026-03-01T10:00:00.000Z",
		Password: "x",
		Confirm:  "x",
	}
}

func asErrors(t *testing.T, err error) Errors {
	t.Helper()
	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("error %v (%T) is not validation.Errors", err, err)
	}
	return verrs
}

func TestValidator_Valid(t *testing.T) {
	v := newTestValidator(t)
	if err := v.Struct(validSample()); err != nil {
		t.Errorf("Struct() error = %v, want nil", err)
	}
}

func TestValidator_Rules(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name      string
		mutate    func(*sample)
		wantField string
		wantKind  string
		wantMsg   string
	}{
		{"missing title", func(s *sample) { s.Title = "" }, "title", KindRequired, "title is required"},
		{"short title", func(s *sample) { s.Title = "abc" }, "title", KindTooSmall, "title must be at least 5 characters"},
		{"long title", func(s *sample) { s.Title = strings.Repeat("x", 21) }, "title", KindTooBig, "title must be at most 20 characters"},
		// Length counts characters, not bytes.
		{"multibyte title within limit", func(s *sample) { s.Title = strings.Repeat("ệ", 20) }, "", "", ""},
		{"bad email", func(s *sample) { s.Email = "not-an-email" }, "email", KindInvalidFormat, "Invalid email address"},
		{"bad phone", func(s *sample) { s.Phone = "call me" }, "phone", KindInvalidFormat, "Invalid phone number"},
		{"good phone", func(s *sample) { s.Phone = "+84 (0) 123-456" }, "", "", ""},
		{"negative members", func(s *sample) { s.Members = -1 }, "members", KindTooSmall, "members must be at least 0"},
		{"unknown enum", func(s *sample) { s.Category = "Tím" }, "category", KindInvalidEnum, "category must be one of: Đỏ, Xanh lá"},
		{"bad date", func(s *sample) { s.Start = "01/03/2026" }, "start", KindInvalidFormat, "start must be an ISO 8601 date-time"},
		{"end before start", func(s *sample) { s.End = "2026-02-28T08:00:00Z" }, "end", KindTooSmall, "end must not be before start"},
		{"mismatch", func(s *sample) { s.Confirm = "y" }, "confirm", KindMismatch, "Passwords don't match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSample()
			tt.mutate(&s)
			err := v.Struct(s)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}
			verrs := asErrors(t, err)
			if len(verrs) != 1 {
				t.Fatalf("got %d errors (%v), want 1", len(verrs), verrs)
			}
			got := verrs[0]
			if got.Field != tt.wantField || got.Kind != tt.wantKind || got.Message != tt.wantMsg {
				t.Errorf("got %+v, want {%s %s %q}", got, tt.wantField, tt.wantKind, tt.wantMsg)
			}
		})
	}
}

func TestValidator_AccumulatesAllErrors(t *testing.T) {
	v := newTestValidator(t)
	s := validSample()
	s.Title = "ab"
	s.Email = "bad"
	s.Start = ""

	verrs := asErrors(t, v.Struct(s))
	got := strings.Join(verrs.Fields(), ",")
	if got != "title,email,start" {
		t.Errorf("fields = %s, want title,email,start in declaration order", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	type target struct {
		Name    string `json:"name"`
		Members int    `json:"members"`
	}

	t.Run("overlay keeps existing fields", func(t *testing.T) {
		dst := target{Name: "Chess", Members: 4}
		if err := DecodeJSON(strings.NewReader(`{"members":9}`), &dst); err != nil {
			t.Fatalf("DecodeJSON() error = %v", err)
		}
		if dst.Name != "Chess" || dst.Members != 9 {
			t.Errorf("dst = %+v, want {Chess 9}", dst)
		}
	})

	tests := []struct {
		name      string
		body      string
		wantField string
		wantKind  string
	}{
		{"empty body", ``, "body", KindRequired},
		{"syntax error", `{"name":`, "body", KindInvalidJSON},
		{"garbage", `{nope}`, "body", KindInvalidJSON},
		{"wrong type", `{"members":"many"}`, "members", KindInvalidType},
		{"fractional int", `{"members":1.5}`, "members", KindInvalidType},
		{"array body", `[1,2]`, "body", KindInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst target
			verrs := asErrors(t, DecodeJSON(strings.NewReader(tt.body), &dst))
			if verrs[0].Field != tt.wantField || verrs[0].Kind != tt.wantKind {
				t.Errorf("got %+v, want field %s kind %s", verrs[0], tt.wantField, tt.wantKind)
			}
		})
	}

	t.Run("size limit passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := http.MaxBytesReader(rec, io.NopCloser(strings.NewReader(`{"name":"`+strings.Repeat("x", 64)+`"}`)), 8)
		var dst target
		err := DecodeJSON(body, &dst)
		var maxErr *http.MaxBytesError
		if !errors.As(err, &maxErr) {
			t.Errorf("DecodeJSON() error = %v, want *http.MaxBytesError", err)
		}
	})
}

func TestParseListQuery(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		query     string
		want      ListParams
		wantField string
	}{
		{query: "", want: ListParams{Page: 1}},
		{query: "page=3&limit=10&sort=asc&search=chess", want: ListParams{Page: 3, Limit: 10, Ascending: true, Search: "chess"}},
		{query: "sort=desc", want: ListParams{Page: 1}},
		{query: "page=0", wantField: "page"},
		{query: "page=abc", wantField: "page"},
		{query: "limit=101", wantField: "limit"},
		{query: "limit=0", wantField: "limit"},
		{query: "sort=createdAt", want: ListParams{Page: 1}},
		{query: "sort=ASC", want: ListParams{Page: 1}},
		{query: "sort=" + strings.Repeat("x", 51), wantField: "sort"},
		{query: "page=1000000000&limit=100", want: ListParams{Page: 1_000_000_000, Limit: 100}},
		{query: "page=1000000001", wantField: "page"},
		{query: "page=922337203685477581&limit=100", wantField: "page"},
		{query: "search=" + strings.Repeat("a", 101), wantField: "search"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got, err := v.ParseListQuery(values)
			if tt.wantField != "" {
				verrs := asErrors(t, err)
				if verrs[0].Field != tt.wantField {
					t.Errorf("field = %s, want %s", verrs[0].Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseListQuery() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseListQuery() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestListParams_Offset(t *testing.T) {
	tests := []struct {
		p    ListParams
		want int
	}{
		{ListParams{Page: 1, Limit: 10}, 0},
		{ListParams{Page: 3, Limit: 10}, 20},
		{ListParams{Page: 3}, 0},
		{ListParams{Page: MaxPage, Limit: MaxPageSize}, (MaxPage - 1) * MaxPageSize},
		{ListParams{Page: math.MaxInt / 2, Limit: MaxPageSize}, math.MaxInt},
	}
	for _, tt := range tests {
		if got := tt.p.Offset(); got != tt.want {
			t.Errorf("%+v.Offset() = %d, want %d", tt.p, got, tt.want)
		}
	}
}
