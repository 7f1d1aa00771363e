package service

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"passbook/internal/domain"
)

// EncodeCredentials serializes the whole collection. An empty collection
// encodes as "[]", never "null".
func EncodeCredentials(list []domain.Credential) (string, error) {
	if list == nil {
		list = []domain.Credential{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode credentials: %w", err)
	}
	return string(data), nil
}

// DecodeCredentials parses a stored value.
//
// A JSON array is the collection. Each object element becomes one record on
// its own, so a field of the wrong type in one element cannot cost the others:
// missing and null fields read as empty text, other scalars as their JSON text.
// Elements that are not objects are dropped and counted in skipped.
//
// A bare JSON object is the legacy single-record shape: one record is
// synthesized per own key of the object, each copying the object's top-level
// website/username/password, so every synthesized record is identical. That
// matches what older builds produced on load; the key itself is ignored.
// Anything else is a *domain.MalformedDataError. legacy reports which branch
// produced the list.
func DecodeCredentials(raw string) (list []domain.Credential, legacy bool, skipped int, err error) {
	if !gjson.Valid(raw) {
		return nil, false, 0, &domain.MalformedDataError{Reason: "invalid JSON"}
	}

	parsed := gjson.Parse(raw)
	switch {
	case parsed.IsArray():
		list = []domain.Credential{}
		parsed.ForEach(func(_, elem gjson.Result) bool {
			if !elem.IsObject() {
				skipped++
				return true
			}
			list = append(list, recordFrom(elem))
			return true
		})
		return list, false, skipped, nil

	case parsed.IsObject():
		template := recordFrom(parsed)
		list = []domain.Credential{}
		parsed.ForEach(func(_, _ gjson.Result) bool {
			list = append(list, template)
			return true
		})
		return list, true, 0, nil

	default:
		return nil, false, 0, &domain.MalformedDataError{Reason: fmt.Sprintf("expected an array, got %s", parsed.Type)}
	}
}

func recordFrom(obj gjson.Result) domain.Credential {
	return domain.Credential{
		Website:  recordField(obj, "website"),
		Username: recordField(obj, "username"),
		Password: recordField(obj, "password"),
	}
}

// recordField reads a top-level field of a stored record. Missing and null
// fields read as empty text.
func recordField(obj gjson.Result, name string) string {
	v := obj.Get(name)
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	return v.String()
}

// MergeUnique concatenates current and incoming and drops every record equal
// (all three fields) to one seen earlier. The first occurrence wins, so order
// is stable.
func MergeUnique(current, incoming []domain.Credential) []domain.Credential {
	merged := make([]domain.Credential, 0, len(current)+len(incoming))
	seen := make(map[domain.Credential]struct{}, len(current)+len(incoming))
	for _, list := range [][]domain.Credential{current, incoming} {
		for _, c := range list {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}
