package keys

import (
	"fmt"

	"ghostline/pkg/models"
)

func GenMessageKey(id string) string { return fmt.Sprintf(MessageKey, id) }

func GenProfileKey(id string) string { return fmt.Sprintf(ProfileKey, id) }

func GenScopeKey(ref string) string { return fmt.Sprintf(ScopeKey, ref) }

func GenGrantKey(id string) string { return fmt.Sprintf(GrantKey, id) }

func GenScopeMessageIndex(scopeRef string, sentTS int64, messageID string) string {
	return fmt.Sprintf(ScopeMessageIndex, scopeRef, PadTS(sentTS), messageID)
}

func GenScopeMessagePrefix(scopeRef string) string {
	return fmt.Sprintf(ScopeMessagePrefix, scopeRef)
}

func GenRetentionIndex(messageID string) string {
	return fmt.Sprintf(RetentionIndex, messageID)
}

func GenSubjectGrantIndex(ref models.SubjectRef, grantID string) string {
	return fmt.Sprintf(SubjectGrantIndex, ref.Kind, ref.ID, grantID)
}

func GenSubjectGrantPrefix(ref models.SubjectRef) string {
	return fmt.Sprintf(SubjectGrantPrefix, ref.Kind, ref.ID)
}

func GenAccessRequestKey(ref models.SubjectRef, viewer string) string {
	return fmt.Sprintf(AccessRequestKey, ref.Kind, ref.ID, viewer)
}

func GenAccessRequestPrefix(ref models.SubjectRef) string {
	return fmt.Sprintf(AccessRequestPrefix, ref.Kind, ref.ID)
}

// PadTS zero-pads a unix-nano timestamp so keys sort chronologically.
func PadTS(ts int64) string {
	if ts < 0 {
		ts = 0
	}
	return fmt.Sprintf("%0*d", TSPadWidth, ts)
}

// PrefixEnd returns the smallest key greater than every key with prefix,
// for use as an exclusive iterator upper bound.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
