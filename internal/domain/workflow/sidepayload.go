package workflow

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// Side-payload field names accepted in a transition's extra object.
const (
	FieldQuotedPrice          = "quoted_price"
	FieldCurrency             = "currency"
	FieldScheduledDate        = "scheduled_date"
	FieldEstimatedCompletion  = "estimated_completion"
	FieldDeliverables         = "deliverables"
	FieldDeliveryNotes        = "delivery_notes"
	FieldCompletedDeliverable = "completed_deliverables"
	fieldCompletedAt          = "completed_at"
)

// CompletedDeliverables is the stored shape of a completion hand-off.
type CompletedDeliverables struct {
	Items []string `json:"items"`
	Notes string   `json:"notes,omitempty"`
}

// extraFields decodes extra into its top-level fields. Empty and null yield no fields.
func extraFields(extra json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(extra)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]json.RawMessage{}, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, apperrors.ValidationField("extra", "extra must be a JSON object")
	}
	return fields, nil
}

// sidePayload computes the column changes a transition into target carries.
// Fields not relevant to target are ignored.
func sidePayload(job *model.Job, target model.JobStatus, extra json.RawMessage, now time.Time) (model.JobPatch, error) {
	fields, err := extraFields(extra)
	if err != nil {
		return model.JobPatch{}, err
	}

	var patch model.JobPatch
	switch target {
	case model.JobStatusQuoted:
		set := map[string]any{}
		if raw, ok := fields[FieldQuotedPrice]; ok {
			var price float64
			if err := json.Unmarshal(raw, &price); err != nil || price < 0 {
				return patch, apperrors.ValidationField(FieldQuotedPrice, "quoted_price must be a non-negative number")
			}
			set[FieldQuotedPrice] = price
		}
		if raw, ok := fields[FieldCurrency]; ok {
			currency, err := stringField(FieldCurrency, raw)
			if err != nil {
				return patch, err
			}
			set[FieldCurrency] = strings.ToUpper(currency)
		}
		if len(set) > 0 {
			patch.Pricing, err = mergeObject(job.Pricing, set)
		}

	case model.JobStatusConfirmed:
		patch.Scheduling, err = scheduleField(job, fields, FieldScheduledDate)

	case model.JobStatusInProgress:
		patch.Scheduling, err = scheduleField(job, fields, FieldEstimatedCompletion)

	case model.JobStatusDelivered:
		if raw, ok := fields[FieldDeliverables]; ok {
			var items []string
			items, err = stringListField(FieldDeliverables, raw)
			if err == nil {
				patch.Deliverables, err = json.Marshal(items)
			}
		}

	case model.JobStatusCompleted:
		patch, err = completionPayload(job, fields, now)
	}
	if err != nil {
		return model.JobPatch{}, err
	}
	return patch, nil
}

func completionPayload(job *model.Job, fields map[string]json.RawMessage, now time.Time) (model.JobPatch, error) {
	var (
		patch   model.JobPatch
		handoff CompletedDeliverables
		present bool
		err     error
	)
	if raw, ok := fields[FieldDeliveryNotes]; ok {
		if handoff.Notes, err = stringField(FieldDeliveryNotes, raw); err != nil {
			return patch, err
		}
		present = true
	}
	if raw, ok := fields[FieldCompletedDeliverable]; ok {
		if handoff.Items, err = stringListField(FieldCompletedDeliverable, raw); err != nil {
			return patch, err
		}
		present = true
	}
	if present {
		if handoff.Items == nil {
			handoff.Items = []string{}
		}
		if patch.CompletedDeliverables, err = json.Marshal(handoff); err != nil {
			return patch, err
		}
	}
	patch.Scheduling, err = mergeObject(job.Scheduling, map[string]any{
		fieldCompletedAt: now.UTC().Format(time.RFC3339),
	})
	return patch, err
}

func scheduleField(job *model.Job, fields map[string]json.RawMessage, name string) (json.RawMessage, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, nil
	}
	s, err := stringField(name, raw)
	if err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, apperrors.ValidationField(name, name+" must be an RFC3339 timestamp")
	}
	return mergeObject(job.Scheduling, map[string]any{name: ts.UTC().Format(time.RFC3339)})
}

func stringField(name string, raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", apperrors.ValidationField(name, name+" must be a string")
	}
	return strings.TrimSpace(s), nil
}

func stringListField(name string, raw json.RawMessage) ([]string, error) {
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperrors.ValidationField(name, name+" must be a list of strings")
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out, nil
}

// mergeObject overlays set onto the JSON object in base. A base that is not an object is replaced.
func mergeObject(base json.RawMessage, set map[string]any) (json.RawMessage, error) {
	obj := map[string]any{}
	if len(bytes.TrimSpace(base)) > 0 {
		if err := json.Unmarshal(base, &obj); err != nil || obj == nil {
			obj = map[string]any{}
		}
	}
	for k, v := range set {
		obj[k] = v
	}
	return json.Marshal(obj)
}
