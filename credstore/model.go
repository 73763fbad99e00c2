package credstore

// UserRecord is the store-local profile shape. The root package converts
// to and from its public User type; keeping a local model avoids an import
// cycle with the engine.
type UserRecord struct {
	ID         string
	Identifier string
	Name       string
	Verified   bool
	Sector     string
	Privileges []string
}

// Bundle is the persisted credential record. Token and User travel together
// in one encoded blob; there is no partially-written state to observe.
type Bundle struct {
	Token string
	User  *UserRecord

	// LastValidated is a unix timestamp (seconds) of the last successful or
	// cache-accepted validation.
	LastValidated int64
}
