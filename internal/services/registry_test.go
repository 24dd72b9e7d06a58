package services

import (
	"context"
	"reflect"
	"testing"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"trims and dedupes", []string{" coffee", "coffee ", "work"}, []string{"coffee", "work"}},
		{"drops single runes", []string{"a", "", "  ", "ok"}, []string{"ok"}},
		{"truncates to ten runes", []string{"extraordinarily"}, []string{"extraordin"}},
		{"counts runes not bytes", []string{"冲动消费", "好"}, []string{"冲动消费"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTags(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTags(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProcessTags(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	if err := e.Registry.ProcessTags(ctx, []string{"coffee", "treat", "impulsive buy"}); err != nil {
		t.Fatal(err)
	}
	tags, err := e.Registry.CommonTags(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 {
		t.Fatalf("long unknown tags must not be created, got %+v", tags)
	}

	if err := e.Registry.ProcessTags(ctx, []string{"treat"}); err != nil {
		t.Fatal(err)
	}
	tags, err = e.Registry.CommonTags(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tags[0].Name != "treat" || tags[0].UsageCount != 2 || tags[0].Type != defaultTagType {
		t.Fatalf("expected treat used twice first, got %+v", tags)
	}
}

func TestTouchCategoryRegistersUnknown(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	for i := 0; i < 3; i++ {
		if err := e.Registry.TouchCategory(ctx, spend(testDate, "Food", "Lunch", 1).Category); err != nil {
			t.Fatal(err)
		}
	}
	cats, err := e.Registry.ListCategories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 1 || cats[0].UsageCount != 3 || cats[0].LastUsedAt == nil {
		t.Fatalf("unexpected categories %+v", cats)
	}
}
