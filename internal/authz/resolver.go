package authz

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActingRoleHeader carries the client's self-asserted role.
const ActingRoleHeader = "X-Acting-Role"

// ResolveActingRole returns the lower-cased acting role of a request.
// A non-empty header wins, then the body keys acting_user_type and acting_role
// when the body is a JSON object.
func ResolveActingRole(header string, body []byte) (string, bool) {
	if role := strings.TrimSpace(header); role != "" {
		return strings.ToLower(role), true
	}
	if len(body) == 0 {
		return "", false
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false
	}
	for _, key := range []string{"acting_user_type", "acting_role"} {
		if role, ok := scalarString(fields[key]); ok {
			return strings.ToLower(role), true
		}
	}
	return "", false
}

// scalarString renders a present, non-empty JSON scalar. Empty strings, false,
// zero and null count as absent.
func scalarString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, val != ""
	case bool:
		return "true", val
	case float64:
		if val == 0 {
			return "", false
		}
		return fmt.Sprint(val), true
	}
	return "", false
}
