package validators

import (
	"net/http"

	"github.com/angelmondragon/flashdealz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/flashdealz-backend/pkg/errors"
)

// ParseQueryItemStatus reads an optional ?status= filter. An empty value
// means no filter; anything outside the known statuses is rejected.
func ParseQueryItemStatus(r *http.Request, key string) (enums.ItemStatus, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return "", nil
	}

	status, err := enums.ParseItemStatus(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown status filter").
			WithDetails(map[string]string{"status": raw})
	}
	return status, nil
}
