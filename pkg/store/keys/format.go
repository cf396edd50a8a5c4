package keys

// Key layout. Record keys hold CBOR values; idx: keys are empty-valued
// markers whose key alone carries the relation.
const (
	MessageKey = "m:%s" // m:<message_id>
	ProfileKey = "p:%s" // p:<profile_id>
	ScopeKey   = "s:%s" // s:<scope_ref>
	GrantKey   = "g:%s" // g:<grant_id>

	// scope -> message, ordered by send time
	ScopeMessageIndex  = "idx:s:%s:m:%s:%s" // idx:s:<scope_ref>:m:<sent_ts>:<message_id>
	ScopeMessagePrefix = "idx:s:%s:m:"

	// messages the retention sweeper still has to look at
	RetentionIndex  = "idx:rt:%s" // idx:rt:<message_id>
	RetentionPrefix = "idx:rt:"

	// subject -> grant
	SubjectGrantIndex  = "idx:g:%s:%s:%s" // idx:g:<kind>:<subject_id>:<grant_id>
	SubjectGrantPrefix = "idx:g:%s:%s:"

	// pending access requests, one per (subject, viewer)
	AccessRequestKey    = "rq:%s:%s:%s" // rq:<kind>:<subject_id>:<viewer_id>
	AccessRequestPrefix = "rq:%s:%s:"
)

const TSPadWidth = 20
