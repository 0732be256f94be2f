package resolver

import (
	"reflect"
	"testing"
)

func TestVideoHas(t *testing.T) {
	v := Video{Service: "youtube", ID: "abc", Title: "t", Duration: 90}
	tests := []struct {
		field string
		want  bool
	}{
		{FieldTitle, true},
		{FieldDuration, true},
		{FieldThumbnail, false},
		{FieldMime, false},
		{FieldChannel, false},
		{"unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := v.Has(tt.field); got != tt.want {
				t.Errorf("Has(%q) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestVideoMissing(t *testing.T) {
	schema := []string{FieldTitle, FieldDuration, FieldThumbnail, FieldMime}
	v := Video{Title: "t", Mime: "video/mp4"}
	got := v.Missing(schema)
	want := []string{FieldDuration, FieldThumbnail}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}

	full := Video{Title: "t", Duration: 1, Thumbnail: "x", Mime: "video/mp4"}
	if m := full.Missing(schema); m != nil {
		t.Errorf("complete record Missing() = %v, want nil", m)
	}
}

func TestVideoMerge(t *testing.T) {
	t.Run("newer wins on overlap", func(t *testing.T) {
		old := Video{Service: "youtube", ID: "abc", Title: "old title", Duration: 10}
		fetched := Video{Title: "new title"}
		got := old.Merge(fetched)
		if got.Title != "new title" {
			t.Errorf("Title = %q, want fetched value", got.Title)
		}
		if got.Duration != 10 {
			t.Errorf("Duration = %d, want old value preserved", got.Duration)
		}
	})

	t.Run("absent newer fields fall back", func(t *testing.T) {
		old := Video{Service: "youtube", ID: "abc", Title: "t", Thumbnail: "thumb.jpg"}
		fetched := Video{Duration: 120}
		got := old.Merge(fetched)
		want := Video{Service: "youtube", ID: "abc", Title: "t", Thumbnail: "thumb.jpg", Duration: 120}
		if got != want {
			t.Errorf("Merge() = %+v, want %+v", got, want)
		}
	})

	t.Run("identity preserved on cache stub", func(t *testing.T) {
		stub := Video{Service: "vimeo", ID: "123"}
		fetched := Video{Service: "vimeo", ID: "123", Title: "t"}
		got := stub.Merge(fetched)
		if got.Service != "vimeo" || got.ID != "123" {
			t.Errorf("identity lost: %+v", got)
		}
	})

	t.Run("disjoint merge order independent", func(t *testing.T) {
		a := Video{Service: "youtube", ID: "x", Title: "t"}
		b := Video{Service: "youtube", ID: "x", Duration: 5}
		if a.Merge(b) != b.Merge(a) {
			t.Error("disjoint field sets should merge the same in either order")
		}
	})
}

func TestVideoHasAny(t *testing.T) {
	schema := []string{FieldTitle, FieldDuration}
	if (Video{Service: "youtube", ID: "x"}).HasAny(schema) {
		t.Error("empty record should have no usable fields")
	}
	if !(Video{Title: "t"}).HasAny(schema) {
		t.Error("record with title should have a usable field")
	}
	// Populated fields outside the schema do not count as usable.
	if (Video{Description: "d"}).HasAny(schema) {
		t.Error("non-schema field should not count as usable")
	}
}

func TestMimeSupported(t *testing.T) {
	if !MimeSupported("video/mp4") {
		t.Error("video/mp4 should be supported")
	}
	if MimeSupported("video/x-unsupported") {
		t.Error("video/x-unsupported should be rejected")
	}
	if MimeSupported("") {
		t.Error("empty mime is absence, not a supported type")
	}
}
