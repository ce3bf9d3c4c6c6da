package model

import "github.com/tidwall/gjson"

// Field accessors only check presence; a present key is read with gjson's
// lenient conversion.

func requireInt(r gjson.Result, entity, key string) (int64, error) {
	v := r.Get(key)
	if !v.Exists() {
		return 0, missing(entity, key)
	}
	return v.Int(), nil
}

func requireString(r gjson.Result, entity, key string) (string, error) {
	v := r.Get(key)
	if !v.Exists() {
		return "", missing(entity, key)
	}
	return v.String(), nil
}

func optionalString(r gjson.Result, key string) string {
	return r.Get(key).String()
}

func has(r gjson.Result, key string) bool {
	return r.Get(key).Exists()
}
