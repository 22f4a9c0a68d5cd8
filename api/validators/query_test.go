package validators

import (
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/flashdealz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/flashdealz-backend/pkg/errors"
)

func TestParseQueryItemStatus(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/items?status=ongoing", nil)
	status, err := ParseQueryItemStatus(r, "status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != enums.ItemStatusOngoing {
		t.Fatalf("expected ongoing, got %q", status)
	}

	r = httptest.NewRequest("GET", "/items", nil)
	status, err = ParseQueryItemStatus(r, "status")
	if err != nil {
		t.Fatalf("unexpected error for absent filter: %v", err)
	}
	if status != "" {
		t.Fatalf("expected empty status for absent filter, got %q", status)
	}

	r = httptest.NewRequest("GET", "/items?status=paused", nil)
	if _, err := ParseQueryItemStatus(r, "status"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
