package huma

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jlvsolutions/WorldCities-sub000/pkg/listquery"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

func TestFromError(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		err    error
		status int
		detail string
	}{
		{sdk.Errorf(sdk.ErrNotFound, "City 9 was not found."), http.StatusNotFound, "City 9 was not found."},
		{sdk.Errorf(sdk.ErrDuplicate, "dupe"), http.StatusConflict, "dupe"},
		{sdk.Errorf(sdk.ErrInUse, "in use"), http.StatusConflict, "in use"},
		{sdk.Errorf(sdk.ErrInvalid, "bad"), http.StatusBadRequest, "bad"},
		{fmt.Errorf("%w: sort column %q", listquery.ErrUnknownColumn, "x"), http.StatusBadRequest, `unknown column: sort column "x"`},
		{Error409Conflict("kept"), http.StatusConflict, "kept"},
	}
	for _, tt := range tests {
		var se StatusError
		if !errors.As(FromError(tt.err), &se) {
			t.Fatalf("%v: not a status error", tt.err)
		}
		if se.GetStatus() != tt.status || se.Error() != tt.detail {
			t.Fatalf("%v: got %d %q", tt.err, se.GetStatus(), se.Error())
		}
	}
	if FromError(boom) != boom || FromError(nil) != nil {
		t.Fatalf("passthrough")
	}
}
