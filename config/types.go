package config

// KnownBackends lists the storage backend identifiers Validate accepts.
var KnownBackends = map[string]bool{
	"memory":  true,
	"sqlite":  true,
	"jsonl":   true,
	"leveldb": true,
}
