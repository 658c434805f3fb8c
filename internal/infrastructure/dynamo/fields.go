package dynamo

// Attribute names of the sessions table.
const (
	fieldPK        = "pk"
	fieldToken     = "token"
	fieldExpiresAt = "expires_at"
)

// Partition key prefixes.
const (
	activePrefix    = "active#"
	blacklistPrefix = "blacklist#"
)
