package events

import (
	"fmt"
	"strconv"
	"time"
)

// ViewEvent records one public view of a shared invitation.
type ViewEvent struct {
	EventID        string
	InvitationUUID string
	ViewedAt       time.Time
	IP             string
	UserAgent      string
	Referer        string
}

func (e *ViewEvent) fields() map[string]interface{} {
	fields := map[string]interface{}{
		"event_id":        e.EventID,
		"invitation_uuid": e.InvitationUUID,
		"timestamp":       e.ViewedAt.UnixMilli(),
	}

	if e.IP != "" {
		fields["ip"] = e.IP
	}
	if e.UserAgent != "" {
		fields["user_agent"] = e.UserAgent
	}
	if e.Referer != "" {
		fields["referer"] = e.Referer
	}
	return fields
}

// ParseViewEvent rebuilds an event from stream message values.
func ParseViewEvent(values map[string]interface{}) (*ViewEvent, error) {
	uuid, ok := values["invitation_uuid"].(string)
	if !ok || uuid == "" {
		return nil, fmt.Errorf("missing invitation_uuid")
	}

	e := &ViewEvent{InvitationUUID: uuid}
	e.EventID, _ = values["event_id"].(string)
	e.IP, _ = values["ip"].(string)
	e.UserAgent, _ = values["user_agent"].(string)
	e.Referer, _ = values["referer"].(string)

	switch ts := values["timestamp"].(type) {
	case string:
		ms, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
		e.ViewedAt = time.UnixMilli(ms).UTC()
	case int64:
		e.ViewedAt = time.UnixMilli(ts).UTC()
	default:
		e.ViewedAt = time.Now().UTC()
	}

	return e, nil
}
