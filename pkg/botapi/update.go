package botapi

import (
	"log/slog"

	"github.com/tidwall/gjson"
)

// Update is one normalized inbound event: its identifier, the name of its
// single payload field, and that field's value.
type Update struct {
	ID       int64
	TypeName string
	Payload  gjson.Result
}

// NormalizeUpdate extracts the stable shape from a raw update object. The
// protocol promises exactly one field besides update_id; its name becomes the
// update type. An update with no payload field is a protocol error. Should a
// future protocol version send several payload fields, the first in document
// order wins and the extras are logged rather than silently lost.
func NormalizeUpdate(raw gjson.Result, log *slog.Logger) (Update, error) {
	if log == nil {
		log = slog.Default()
	}

	update := Update{ID: raw.Get("update_id").Int()}

	extra := 0
	raw.ForEach(func(key, value gjson.Result) bool {
		if key.Str == "update_id" {
			return true
		}
		if update.TypeName == "" {
			update.TypeName = key.Str
			update.Payload = value

			return true
		}

		extra++

		return true
	})

	if update.TypeName == "" {
		return Update{}, NewError(ErrorMalformedUpdate, "update has no payload field")
	}
	if extra > 0 {
		log.Debug("Update carries multiple payload fields", "update_id", update.ID, "type", update.TypeName, "extra_fields", extra)
	}

	return update, nil
}
