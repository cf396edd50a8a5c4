package keys

import (
	"fmt"
	"regexp"
)

// letters, digits, dot, underscore, dash; ':' is reserved as the key
// separator
var idRegexp = regexp.MustCompile(`^[A-Za-z0-9._-]{1,256}$`)

// ValidateID checks that an id is safe to embed in a key.
func ValidateID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s id empty", kind)
	}
	if !idRegexp.MatchString(id) {
		return fmt.Errorf("invalid %s id: %q", kind, id)
	}
	return nil
}
