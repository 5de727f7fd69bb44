package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestClassifiedError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ClassifiedError
		expected string
		detail   string
	}{
		{
			name:     "without cause",
			err:      ValidationError("name is required").Build(),
			expected: "[validation:error] name is required",
			detail:   "name is required",
		},
		{
			name:     "with cause",
			err:      WrapError(fmt.Errorf("disk full"), CategoryPack, "write archive").Build(),
			expected: "[pack:error] write archive: disk full",
			detail:   "write archive: disk full",
		},
		{
			name: "nested classified cause",
			err: WrapError(
				NotFoundError("build not found").Build(),
				CategoryDataLoad, "load build data").Build(),
			expected: "[dataload:error] load build data: [not_found:error] build not found",
			detail:   "load build data: build not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
			if got := tt.err.Detail(); got != tt.detail {
				t.Errorf("Detail() = %q, want %q", got, tt.detail)
			}
		})
	}
}

func TestClassifiedError_WithContextDoesNotMutateOriginal(t *testing.T) {
	base := NewError(CategoryRender, "write page").WithContext("page", "/").Build()
	derived := base.WithContext("path", "index.html")

	if _, ok := base.Context().Get("path"); ok {
		t.Fatal("original error context was mutated")
	}
	if v, _ := derived.Context().GetString("page"); v != "/" {
		t.Errorf("derived context lost page, got %q", v)
	}
	if v, _ := derived.Context().GetString("path"); v != "index.html" {
		t.Errorf("derived context path = %q", v)
	}
}

func TestAsClassifiedThroughWrapping(t *testing.T) {
	inner := AlreadyExistsError("export already pending").Build()
	wrapped := fmt.Errorf("submit: %w", inner)

	c, ok := AsClassified(wrapped)
	if !ok {
		t.Fatal("expected classified error in chain")
	}
	if c.Category() != CategoryAlreadyExists {
		t.Errorf("category = %s", c.Category())
	}
	if !HasCategory(wrapped, CategoryAlreadyExists) {
		t.Error("HasCategory should see through fmt wrapping")
	}
	if GetCategory(stdErrors.New("plain")) != CategoryInternal {
		t.Error("plain errors should default to internal")
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(nil); got != "" {
		t.Errorf("UserMessage(nil) = %q", got)
	}
	if got := UserMessage(stdErrors.New("boom")); got != "boom" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
	err := WrapError(stdErrors.New("connection refused"), CategoryDataLoad, "load build data").Build()
	if got := UserMessage(err); got != "load build data: connection refused" {
		t.Errorf("UserMessage(classified) = %q", got)
	}
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{stdErrors.New("x"), 1},
		{ValidationError("bad").Build(), 2},
		{NotFoundError("missing").Build(), 3},
		{ConfigError("bad config").Build(), 7},
		{NewError(CategoryPack, "zip").Build(), 11},
		{InternalError("bug").Build(), 10},
	}
	for _, tt := range tests {
		if got := a.ExitCodeFor(tt.err); got != tt.want {
			t.Errorf("ExitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestCLIErrorAdapter_LogReportsCauseWhenVerbose(t *testing.T) {
	err := WrapError(stdErrors.New("disk full"), CategoryPack, "failed to create archive").Build()

	var quiet bytes.Buffer
	NewCLIErrorAdapter(false, slog.New(slog.NewJSONHandler(&quiet, nil))).Log(err)
	if strings.Contains(quiet.String(), "cause_type") {
		t.Errorf("non-verbose log should omit cause_type: %s", quiet.String())
	}

	var loud bytes.Buffer
	NewCLIErrorAdapter(true, slog.New(slog.NewJSONHandler(&loud, nil))).Log(err)
	if !strings.Contains(loud.String(), `"cause_type":"*errors.errorString"`) {
		t.Errorf("verbose log should carry cause_type: %s", loud.String())
	}
	if !strings.Contains(loud.String(), `"category":"pack"`) {
		t.Errorf("log should carry the category: %s", loud.String())
	}
}

func TestCLIErrorAdapter_LogUnclassified(t *testing.T) {
	var buf bytes.Buffer
	NewCLIErrorAdapter(false, slog.New(slog.NewJSONHandler(&buf, nil))).Log(stdErrors.New("boom"))
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("unexpected log output: %s", buf.String())
	}
}
